package aliyun

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	cas "github.com/alibabacloud-go/cas-20200407/v3/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
)

type casAPI interface {
	UploadUserCertificate(request *cas.UploadUserCertificateRequest) (*cas.UploadUserCertificateResponse, error)
}

// CertUploader 阿里云数字证书管理服务
type CertUploader struct {
	client casAPI
	logger *slog.Logger
}

// NewCertUploader 创建阿里云证书上传器
func NewCertUploader(cfg *config.AliyunConfig, logger *slog.Logger) (*CertUploader, error) {
	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String("cas.aliyuncs.com"),
	}

	client, err := cas.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云CAS客户端失败: %w", err)
	}

	return newCertUploader(client, logger), nil
}

func newCertUploader(client casAPI, logger *slog.Logger) *CertUploader {
	return &CertUploader{
		client: client,
		logger: logging.Or(logger).With("component", "aliyun-cas"),
	}
}

// Name 返回提供商名称
func (u *CertUploader) Name() string {
	return "aliyun"
}

// Upload 上传证书
func (u *CertUploader) Upload(ctx context.Context, name, certPEM, keyPEM string) (string, error) {
	u.logger.Info("上传证书", "name", name)

	request := &cas.UploadUserCertificateRequest{
		Name: tea.String(name),
		Cert: tea.String(certPEM),
		Key:  tea.String(keyPEM),
	}

	response, err := u.client.UploadUserCertificate(request)
	if err != nil {
		return "", fmt.Errorf("上传证书失败: %w", err)
	}

	var certID string
	if response.Body != nil {
		certID = strconv.FormatInt(tea.Int64Value(response.Body.CertId), 10)
	}
	u.logger.Info("证书已上传", "cert_id", certID)
	return certID, nil
}
