package core

import (
	"fmt"
	"log/slog"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
	"ssl-certgen/internal/provider/aliyun"
	"ssl-certgen/internal/provider/azure"
	"ssl-certgen/internal/provider/huawei"
	"ssl-certgen/internal/provider/tencent"
	"ssl-certgen/internal/runner"
)

// Factory 提供商工厂
type Factory struct {
	config *config.Config
	runner runner.Runner
	logger *slog.Logger

	// 缓存已创建的提供商实例
	uploaders  map[string]provider.CertUploader
	publishers map[string]provider.DNSPublisher
}

// NewFactory 创建工厂
func NewFactory(cfg *config.Config, r runner.Runner, logger *slog.Logger) *Factory {
	return &Factory{
		config:     cfg,
		runner:     r,
		logger:     logging.Or(logger),
		uploaders:  make(map[string]provider.CertUploader),
		publishers: make(map[string]provider.DNSPublisher),
	}
}

// DNSPublisher 获取DNS提供商
func (f *Factory) DNSPublisher(name string) (provider.DNSPublisher, error) {
	if p, ok := f.publishers[name]; ok {
		return p, nil
	}

	var (
		p   provider.DNSPublisher
		err error
	)
	providers := f.config.Providers

	switch {
	case name == "azure" && providers.Azure != nil:
		p, err = azure.NewDNSProvider(providers.Azure, f.runner, f.logger)
	case name == "aliyun" && providers.Aliyun != nil:
		p, err = aliyun.NewDNSProvider(providers.Aliyun, f.logger)
	case name == "tencent" && providers.Tencent != nil:
		p, err = tencent.NewDNSProvider(providers.Tencent, f.logger)
	case name == "huawei" && providers.Huawei != nil:
		p, err = huawei.NewDNSProvider(providers.Huawei, f.logger)
	default:
		return nil, fmt.Errorf("%w: DNS %q", provider.ErrUnknownProvider, name)
	}
	if err != nil {
		return nil, err
	}

	f.publishers[name] = p
	return p, nil
}

// CertUploader 获取证书上传提供商
func (f *Factory) CertUploader(name string) (provider.CertUploader, error) {
	if u, ok := f.uploaders[name]; ok {
		return u, nil
	}

	var (
		u   provider.CertUploader
		err error
	)
	providers := f.config.Providers

	switch {
	case name == "aliyun" && providers.Aliyun != nil:
		u, err = aliyun.NewCertUploader(providers.Aliyun, f.logger)
	case name == "tencent" && providers.Tencent != nil:
		u, err = tencent.NewCertUploader(providers.Tencent, f.logger)
	case name == "huawei" && providers.Huawei != nil:
		u, err = huawei.NewCertUploader(providers.Huawei, f.logger)
	default:
		return nil, fmt.Errorf("%w: 证书 %q", provider.ErrUnknownProvider, name)
	}
	if err != nil {
		return nil, err
	}

	f.uploaders[name] = u
	return u, nil
}
