package aliyun

import (
	"context"
	"fmt"
	"log/slog"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
)

// 免费版解析的最小TTL
const minTTL = 600

// dnsAPI alidns 客户端中用到的方法
type dnsAPI interface {
	AddDomainRecord(request *alidns.AddDomainRecordRequest) (*alidns.AddDomainRecordResponse, error)
	DeleteDomainRecord(request *alidns.DeleteDomainRecordRequest) (*alidns.DeleteDomainRecordResponse, error)
	DescribeDomainRecords(request *alidns.DescribeDomainRecordsRequest) (*alidns.DescribeDomainRecordsResponse, error)
}

// DNSProvider 阿里云DNS提供商
//
// 阿里云解析按单条记录管理，同名多条 TXT 记录即构成一个记录集。
type DNSProvider struct {
	client dnsAPI
	logger *slog.Logger
}

// NewDNSProvider 创建阿里云DNS提供商
func NewDNSProvider(cfg *config.AliyunConfig, logger *slog.Logger) (*DNSProvider, error) {
	endpoint := "alidns.cn-hangzhou.aliyuncs.com"
	if cfg.Region != "" {
		endpoint = fmt.Sprintf("alidns.%s.aliyuncs.com", cfg.Region)
	}

	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	}

	client, err := alidns.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云DNS客户端失败: %w", err)
	}

	return newDNSProvider(client, logger), nil
}

func newDNSProvider(client dnsAPI, logger *slog.Logger) *DNSProvider {
	return &DNSProvider{
		client: client,
		logger: logging.Or(logger).With("component", "aliyun-dns"),
	}
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "aliyun"
}

// Apply 执行一次记录集操作
func (p *DNSProvider) Apply(ctx context.Context, req provider.RecordRequest) error {
	// 主机记录也可以写成完整域名
	req.Name = domain.ExtractSubDomain(req.Name, req.Zone)

	switch req.Op {
	case provider.OpCreate:
		// 记录集随第一条记录创建
		return nil
	case provider.OpAdd:
		return p.addRecord(ctx, req)
	case provider.OpRemove:
		return p.deleteMatching(ctx, req, func(r *provider.DNSRecord) bool {
			return provider.UnquoteTXT(r.Values[0]) == provider.UnquoteTXT(req.Value)
		})
	case provider.OpDelete:
		return p.deleteMatching(ctx, req, func(*provider.DNSRecord) bool { return true })
	default:
		return fmt.Errorf("不支持的记录集操作: %s", req.Op)
	}
}

// addRecord 添加一条TXT记录，相同值已存在时跳过
func (p *DNSProvider) addRecord(ctx context.Context, req provider.RecordRequest) error {
	p.logger.Info("添加记录", "rr", req.Name, "zone", req.Zone, "value", req.Value)

	existing, err := p.FindRecords(ctx, req.Zone, req.Name)
	if err != nil {
		return err
	}
	for _, r := range existing {
		if provider.UnquoteTXT(r.Values[0]) == provider.UnquoteTXT(req.Value) {
			p.logger.Info("记录已存在，跳过", "record_id", r.RecordID)
			return nil
		}
	}

	request := &alidns.AddDomainRecordRequest{
		DomainName: tea.String(req.Zone),
		RR:         tea.String(req.Name),
		Type:       tea.String(provider.RecordTypeTXT),
		Value:      tea.String(provider.UnquoteTXT(req.Value)),
	}
	if req.TTL >= minTTL {
		request.TTL = tea.Int64(int64(req.TTL))
	}

	if _, err := p.client.AddDomainRecord(request); err != nil {
		return fmt.Errorf("添加DNS记录失败: %w", err)
	}

	p.logger.Info("记录已添加")
	return nil
}

// deleteMatching 删除记录集中满足条件的记录
func (p *DNSProvider) deleteMatching(ctx context.Context, req provider.RecordRequest, match func(*provider.DNSRecord) bool) error {
	records, err := p.FindRecords(ctx, req.Zone, req.Name)
	if err != nil {
		return err
	}

	for _, r := range records {
		if !match(r) {
			continue
		}
		p.logger.Info("删除记录", "record_id", r.RecordID, "rr", r.RR)
		request := &alidns.DeleteDomainRecordRequest{
			RecordId: tea.String(r.RecordID),
		}
		if _, err := p.client.DeleteDomainRecord(request); err != nil {
			return fmt.Errorf("删除DNS记录失败: %w", err)
		}
	}

	return nil
}

// FindRecords 查找主机记录下的全部TXT记录
func (p *DNSProvider) FindRecords(ctx context.Context, zone, rr string) ([]*provider.DNSRecord, error) {
	rr = domain.ExtractSubDomain(rr, zone)
	request := &alidns.DescribeDomainRecordsRequest{
		DomainName: tea.String(zone),
		RRKeyWord:  tea.String(rr),
		Type:       tea.String(provider.RecordTypeTXT),
		PageSize:   tea.Int64(100),
	}

	response, err := p.client.DescribeDomainRecords(request)
	if err != nil {
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	var records []*provider.DNSRecord
	if response.Body != nil && response.Body.DomainRecords != nil {
		for _, record := range response.Body.DomainRecords.Record {
			// RRKeyWord 是模糊匹配
			if tea.StringValue(record.RR) != rr || tea.StringValue(record.Type) != provider.RecordTypeTXT {
				continue
			}
			records = append(records, &provider.DNSRecord{
				RecordID: tea.StringValue(record.RecordId),
				Zone:     zone,
				RR:       tea.StringValue(record.RR),
				Type:     tea.StringValue(record.Type),
				Values:   []string{tea.StringValue(record.Value)},
				TTL:      int(tea.Int64Value(record.TTL)),
			})
		}
	}

	return records, nil
}
