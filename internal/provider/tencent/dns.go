package tencent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
)

const (
	recordLine = "默认"
	minTTL     = 600
)

type dnsAPI interface {
	CreateRecordWithContext(ctx context.Context, request *dnspod.CreateRecordRequest) (*dnspod.CreateRecordResponse, error)
	DeleteRecordWithContext(ctx context.Context, request *dnspod.DeleteRecordRequest) (*dnspod.DeleteRecordResponse, error)
	DescribeRecordListWithContext(ctx context.Context, request *dnspod.DescribeRecordListRequest) (*dnspod.DescribeRecordListResponse, error)
}

// DNSProvider 腾讯云DNS提供商 (DNSPod)
type DNSProvider struct {
	client dnsAPI
	logger *slog.Logger
}

// NewDNSProvider 创建腾讯云DNS提供商
func NewDNSProvider(cfg *config.TencentConfig, logger *slog.Logger) (*DNSProvider, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"

	client, err := dnspod.NewClient(credential, "", cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云DNSPod客户端失败: %w", err)
	}

	return newDNSProvider(client, logger), nil
}

func newDNSProvider(client dnsAPI, logger *slog.Logger) *DNSProvider {
	return &DNSProvider{
		client: client,
		logger: logging.Or(logger).With("component", "tencent-dns"),
	}
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "tencent"
}

// Apply 执行一次记录集操作
func (p *DNSProvider) Apply(ctx context.Context, req provider.RecordRequest) error {
	// 主机记录也可以写成完整域名
	req.Name = domain.ExtractSubDomain(req.Name, req.Zone)

	switch req.Op {
	case provider.OpCreate:
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

func (p *DNSProvider) addRecord(ctx context.Context, req provider.RecordRequest) error {
	p.logger.Info("添加记录", "sub_domain", req.Name, "zone", req.Zone, "value", req.Value)

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

	request := dnspod.NewCreateRecordRequest()
	request.Domain = common.StringPtr(req.Zone)
	request.SubDomain = common.StringPtr(req.Name)
	request.RecordType = common.StringPtr(provider.RecordTypeTXT)
	request.RecordLine = common.StringPtr(recordLine)
	request.Value = common.StringPtr(provider.UnquoteTXT(req.Value))
	if req.TTL >= minTTL {
		request.TTL = common.Uint64Ptr(uint64(req.TTL))
	}

	if _, err := p.client.CreateRecordWithContext(ctx, request); err != nil {
		return fmt.Errorf("添加DNS记录失败: %w", err)
	}

	p.logger.Info("记录已添加")
	return nil
}

func (p *DNSProvider) deleteMatching(ctx context.Context, req provider.RecordRequest, match func(*provider.DNSRecord) bool) error {
	records, err := p.FindRecords(ctx, req.Zone, req.Name)
	if err != nil {
		return err
	}

	for _, r := range records {
		if !match(r) {
			continue
		}

		var recordID uint64
		fmt.Sscanf(r.RecordID, "%d", &recordID)

		p.logger.Info("删除记录", "record_id", r.RecordID)
		request := dnspod.NewDeleteRecordRequest()
		request.Domain = common.StringPtr(req.Zone)
		request.RecordId = common.Uint64Ptr(recordID)

		if _, err := p.client.DeleteRecordWithContext(ctx, request); err != nil {
			return fmt.Errorf("删除DNS记录失败: %w", err)
		}
	}

	return nil
}

// FindRecords 查找子域名下的全部TXT记录
func (p *DNSProvider) FindRecords(ctx context.Context, zone, subDomain string) ([]*provider.DNSRecord, error) {
	subDomain = domain.ExtractSubDomain(subDomain, zone)
	request := dnspod.NewDescribeRecordListRequest()
	request.Domain = common.StringPtr(zone)
	request.Subdomain = common.StringPtr(subDomain)
	request.RecordType = common.StringPtr(provider.RecordTypeTXT)

	response, err := p.client.DescribeRecordListWithContext(ctx, request)
	if err != nil {
		// 如果没有记录，腾讯云会返回错误
		if strings.Contains(err.Error(), "NoRecord") || strings.Contains(err.Error(), "记录列表为空") {
			return nil, nil
		}
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	var records []*provider.DNSRecord
	if response.Response != nil {
		for _, record := range response.Response.RecordList {
			if record.Name == nil || *record.Name != subDomain ||
				record.Type == nil || *record.Type != provider.RecordTypeTXT {
				continue
			}
			var ttl int
			if record.TTL != nil {
				ttl = int(*record.TTL)
			}
			records = append(records, &provider.DNSRecord{
				RecordID: fmt.Sprintf("%d", *record.RecordId),
				Zone:     zone,
				RR:       *record.Name,
				Type:     *record.Type,
				Values:   []string{stringValue(record.Value)},
				TTL:      ttl,
			})
		}
	}

	return records, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
