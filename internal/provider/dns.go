package provider

import "context"

// RecordTypeTXT TXT 记录类型
const RecordTypeTXT = "TXT"

// DNSPublisher DNS记录发布接口
type DNSPublisher interface {
	// Name 返回提供商名称
	Name() string

	// Apply 执行一次记录集操作
	Apply(ctx context.Context, req RecordRequest) error
}
