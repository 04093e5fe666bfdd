package huawei

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	dns "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2"
	dnsModel "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/model"
	dnsRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/region"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
)

type dnsAPI interface {
	ListPublicZones(request *dnsModel.ListPublicZonesRequest) (*dnsModel.ListPublicZonesResponse, error)
	ListRecordSetsByZone(request *dnsModel.ListRecordSetsByZoneRequest) (*dnsModel.ListRecordSetsByZoneResponse, error)
	CreateRecordSet(request *dnsModel.CreateRecordSetRequest) (*dnsModel.CreateRecordSetResponse, error)
	UpdateRecordSet(request *dnsModel.UpdateRecordSetRequest) (*dnsModel.UpdateRecordSetResponse, error)
	DeleteRecordSet(request *dnsModel.DeleteRecordSetRequest) (*dnsModel.DeleteRecordSetResponse, error)
}

// DNSProvider 华为云DNS提供商
//
// 华为云按记录集管理，一个记录集包含多个值，但不能为空：
// 移除最后一个值时直接删除记录集。
type DNSProvider struct {
	client dnsAPI
	logger *slog.Logger

	zoneIDs map[string]string
}

// NewDNSProvider 创建华为云DNS提供商
func NewDNSProvider(cfg *config.HuaweiConfig, logger *slog.Logger) (*DNSProvider, error) {
	auth := basic.NewCredentialsBuilder().
		WithAk(cfg.AccessKey).
		WithSk(cfg.SecretKey).
		Build()

	region := cfg.Region
	if region == "" {
		region = "cn-north-4"
	}

	regionObj, err := dnsRegion.SafeValueOf(region)
	if err != nil {
		return nil, fmt.Errorf("无效的区域: %s", region)
	}

	client := dns.NewDnsClient(
		dns.DnsClientBuilder().
			WithRegion(regionObj).
			WithCredential(auth).
			Build())

	return newDNSProvider(client, logger), nil
}

func newDNSProvider(client dnsAPI, logger *slog.Logger) *DNSProvider {
	return &DNSProvider{
		client:  client,
		logger:  logging.Or(logger).With("component", "huawei-dns"),
		zoneIDs: make(map[string]string),
	}
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "huawei"
}

// Apply 执行一次记录集操作
func (p *DNSProvider) Apply(ctx context.Context, req provider.RecordRequest) error {
	switch req.Op {
	case provider.OpCreate:
		// 空记录集在华为云不存在，首次 OpAdd 时创建
		return nil
	case provider.OpAdd, provider.OpRemove, provider.OpDelete:
	default:
		return fmt.Errorf("不支持的记录集操作: %s", req.Op)
	}

	zoneID, err := p.getZoneID(req.Zone)
	if err != nil {
		return err
	}

	existing, err := p.FindRecordSet(ctx, req.Zone, req.Name)
	if err != nil {
		return err
	}

	recordName := fqdn(req.Name, req.Zone)

	switch req.Op {
	case provider.OpAdd:
		if existing == nil {
			p.logger.Info("创建记录集", "name", recordName, "value", req.Value)
			request := &dnsModel.CreateRecordSetRequest{
				ZoneId: zoneID,
				Body: &dnsModel.CreateRecordSetRequestBody{
					Name:    recordName,
					Type:    provider.RecordTypeTXT,
					Ttl:     ttlPtr(req.TTL),
					Records: []string{provider.QuoteTXT(req.Value)},
				},
			}
			if _, err := p.client.CreateRecordSet(request); err != nil {
				return fmt.Errorf("添加DNS记录失败: %w", err)
			}
			return nil
		}
		values := provider.AppendValue(existing.Values, provider.QuoteTXT(req.Value))
		p.logger.Info("追加记录值", "name", recordName, "value", req.Value, "count", len(values))
		return p.update(zoneID, existing, values)

	case provider.OpRemove:
		if existing == nil {
			return nil
		}
		values := provider.RemoveValue(existing.Values, req.Value)
		if len(values) == 0 {
			p.logger.Info("记录集已无值，删除记录集", "name", recordName)
			return p.delete(zoneID, existing)
		}
		p.logger.Info("移除记录值", "name", recordName, "value", req.Value)
		return p.update(zoneID, existing, values)

	default:
		if existing == nil {
			return nil
		}
		return p.delete(zoneID, existing)
	}
}

func (p *DNSProvider) update(zoneID string, rs *provider.DNSRecord, values []string) error {
	name := fqdn(rs.RR, rs.Zone)
	recordType := provider.RecordTypeTXT
	request := &dnsModel.UpdateRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: rs.RecordID,
		Body: &dnsModel.UpdateRecordSetReq{
			Name:    &name,
			Type:    &recordType,
			Records: &values,
		},
	}

	if _, err := p.client.UpdateRecordSet(request); err != nil {
		return fmt.Errorf("更新DNS记录失败: %w", err)
	}
	return nil
}

func (p *DNSProvider) delete(zoneID string, rs *provider.DNSRecord) error {
	p.logger.Info("删除记录集", "recordset_id", rs.RecordID)

	request := &dnsModel.DeleteRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: rs.RecordID,
	}
	if _, err := p.client.DeleteRecordSet(request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}
	return nil
}

// getZoneID 获取域名的Zone ID
func (p *DNSProvider) getZoneID(zone string) (string, error) {
	if id, ok := p.zoneIDs[zone]; ok {
		return id, nil
	}

	name := zone + "."
	request := &dnsModel.ListPublicZonesRequest{Name: &name}

	response, err := p.client.ListPublicZones(request)
	if err != nil {
		return "", fmt.Errorf("获取Zone列表失败: %w", err)
	}

	if response.Zones != nil {
		for _, z := range *response.Zones {
			if z.Name != nil && z.Id != nil && strings.TrimSuffix(*z.Name, ".") == zone {
				p.zoneIDs[zone] = *z.Id
				return *z.Id, nil
			}
		}
	}

	return "", fmt.Errorf("未找到域名 %s 的Zone", zone)
}

// FindRecordSet 查找TXT记录集，不存在时返回 nil
func (p *DNSProvider) FindRecordSet(ctx context.Context, zone, rr string) (*provider.DNSRecord, error) {
	zoneID, err := p.getZoneID(zone)
	if err != nil {
		return nil, err
	}

	recordName := fqdn(rr, zone)
	recordType := provider.RecordTypeTXT
	request := &dnsModel.ListRecordSetsByZoneRequest{
		ZoneId: zoneID,
		Name:   &recordName,
		Type:   &recordType,
	}

	response, err := p.client.ListRecordSetsByZone(request)
	if err != nil {
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	if response.Recordsets == nil {
		return nil, nil
	}

	for _, rs := range *response.Recordsets {
		// Name 是模糊匹配
		if rs.Name == nil || *rs.Name != recordName || rs.Type == nil || *rs.Type != recordType || rs.Id == nil {
			continue
		}
		record := &provider.DNSRecord{
			RecordID: *rs.Id,
			Zone:     zone,
			RR:       rr,
			Type:     *rs.Type,
		}
		if rs.Records != nil {
			record.Values = append(record.Values, *rs.Records...)
		}
		if rs.Ttl != nil {
			record.TTL = int(*rs.Ttl)
		}
		return record, nil
	}

	return nil, nil
}

func fqdn(rr, zone string) string {
	return domain.FQDN(rr, zone) + "."
}

func ttlPtr(ttl int) *int32 {
	if ttl <= 0 {
		return nil
	}
	v := int32(ttl)
	return &v
}
