package provider

import "context"

// CertUploader 云平台证书服务上传接口
type CertUploader interface {
	// Name 返回提供商名称
	Name() string

	// Upload 上传PEM证书和私钥，返回云平台证书ID
	Upload(ctx context.Context, name, certPEM, keyPEM string) (certID string, err error)
}
