package tencent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	ssl "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ssl/v20191205"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
)

type sslAPI interface {
	UploadCertificateWithContext(ctx context.Context, request *ssl.UploadCertificateRequest) (*ssl.UploadCertificateResponse, error)
}

// CertUploader 腾讯云SSL证书服务
type CertUploader struct {
	client sslAPI
	logger *slog.Logger
}

// NewCertUploader 创建腾讯云证书上传器
func NewCertUploader(cfg *config.TencentConfig, logger *slog.Logger) (*CertUploader, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "ssl.tencentcloudapi.com"

	region := cfg.Region
	if region == "" {
		region = "ap-guangzhou"
	}

	client, err := ssl.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云SSL客户端失败: %w", err)
	}

	return newCertUploader(client, logger), nil
}

func newCertUploader(client sslAPI, logger *slog.Logger) *CertUploader {
	return &CertUploader{
		client: client,
		logger: logging.Or(logger).With("component", "tencent-ssl"),
	}
}

// Name 返回提供商名称
func (u *CertUploader) Name() string {
	return "tencent"
}

// Upload 上传证书
func (u *CertUploader) Upload(ctx context.Context, name, certPEM, keyPEM string) (string, error) {
	u.logger.Info("上传证书", "name", name)

	request := ssl.NewUploadCertificateRequest()
	request.CertificatePublicKey = common.StringPtr(certPEM)
	request.CertificatePrivateKey = common.StringPtr(keyPEM)
	request.Alias = common.StringPtr(name)

	response, err := u.client.UploadCertificateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("上传证书失败: %w", err)
	}

	var certID string
	if response.Response != nil && response.Response.CertificateId != nil {
		certID = *response.Response.CertificateId
	}
	u.logger.Info("证书已上传", "cert_id", certID)
	return certID, nil
}
