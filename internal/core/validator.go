package core

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	domainpkg "ssl-certgen/internal/domain"
)

// Validator 证书验证器
type Validator struct {
	now func() time.Time
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// CheckCertificate 检查证书链的叶子证书覆盖全部名称且仍在有效期内
func (v *Validator) CheckCertificate(certPEM []byte, names []string) (*x509.Certificate, error) {
	certs, err := certcrypto.ParsePEMBundle(certPEM)
	if err != nil {
		return nil, fmt.Errorf("解析证书失败: %w", err)
	}

	leaf := certs[0]
	now := v.now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return nil, fmt.Errorf("证书不在有效期内 (%s ~ %s)",
			leaf.NotBefore.Format(time.DateOnly), leaf.NotAfter.Format(time.DateOnly))
	}

	// 收集证书覆盖的所有域名（CN + SANs）
	var certDomains []string
	if leaf.Subject.CommonName != "" {
		certDomains = append(certDomains, leaf.Subject.CommonName)
	}
	certDomains = append(certDomains, leaf.DNSNames...)

	for _, name := range names {
		if !v.matchDomain(certDomains, name) {
			return nil, fmt.Errorf("证书域名不匹配 (证书域名: %v, 目标域名: %s)", certDomains, name)
		}
	}
	return leaf, nil
}

// matchDomain 检查目标域名是否在证书域名列表中匹配
func (v *Validator) matchDomain(certDomains []string, targetDomain string) bool {
	for _, certDomain := range certDomains {
		if domainpkg.MatchDomain(certDomain, targetDomain) {
			return true
		}
	}
	return false
}
