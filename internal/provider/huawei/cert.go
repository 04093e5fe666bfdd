package huawei

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	scm "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3"
	scmModel "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3/model"
	scmRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3/region"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
)

type scmAPI interface {
	ImportCertificate(request *scmModel.ImportCertificateRequest) (*scmModel.ImportCertificateResponse, error)
}

// CertUploader 华为云证书管理服务 (SCM)
type CertUploader struct {
	client scmAPI
	logger *slog.Logger
}

// NewCertUploader 创建华为云证书上传器
func NewCertUploader(cfg *config.HuaweiConfig, logger *slog.Logger) (*CertUploader, error) {
	auth := basic.NewCredentialsBuilder().
		WithAk(cfg.AccessKey).
		WithSk(cfg.SecretKey).
		Build()

	region := cfg.Region
	if region == "" {
		region = "cn-north-4"
	}

	regionObj, err := scmRegion.SafeValueOf(region)
	if err != nil {
		return nil, fmt.Errorf("无效的区域: %s", region)
	}

	client := scm.NewScmClient(
		scm.ScmClientBuilder().
			WithRegion(regionObj).
			WithCredential(auth).
			Build())

	return newCertUploader(client, logger), nil
}

func newCertUploader(client scmAPI, logger *slog.Logger) *CertUploader {
	return &CertUploader{
		client: client,
		logger: logging.Or(logger).With("component", "huawei-scm"),
	}
}

// Name 返回提供商名称
func (u *CertUploader) Name() string {
	return "huawei"
}

// Upload 导入证书
func (u *CertUploader) Upload(ctx context.Context, name, certPEM, keyPEM string) (string, error) {
	u.logger.Info("导入证书", "name", name)

	request := &scmModel.ImportCertificateRequest{
		Body: &scmModel.ImportCertificateRequestBody{
			Name:        name,
			Certificate: certPEM,
			PrivateKey:  keyPEM,
		},
	}

	response, err := u.client.ImportCertificate(request)
	if err != nil {
		return "", fmt.Errorf("导入证书失败: %w", err)
	}

	var certID string
	if response.CertificateId != nil {
		certID = *response.CertificateId
	}
	u.logger.Info("证书已导入", "cert_id", certID)
	return certID, nil
}
