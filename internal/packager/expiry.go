package packager

import (
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"
)

// ExpiryEpochMs 返回证书链中 CN 等于 subject 的证书的过期时间（毫秒）
//
// 多个证书匹配时取最后一个，没有匹配时返回 0。
func ExpiryEpochMs(certPEM []byte, subject string) (int64, error) {
	certs, err := certcrypto.ParsePEMBundle(certPEM)
	if err != nil {
		return 0, fmt.Errorf("解析证书失败: %w", err)
	}

	var expiry int64
	for _, cert := range certs {
		if cert.Subject.CommonName == subject {
			expiry = cert.NotAfter.UnixMilli()
		}
	}
	return expiry, nil
}
