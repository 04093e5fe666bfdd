package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/samber/lo"
)

var keyTypes = map[string]certcrypto.KeyType{
	"RSA2048": certcrypto.RSA2048,
	"RSA3072": certcrypto.RSA3072,
	"RSA4096": certcrypto.RSA4096,
	"EC256":   certcrypto.EC256,
	"EC384":   certcrypto.EC384,
	"P256":    certcrypto.EC256,
	"P384":    certcrypto.EC384,
}

// ParseKeyType 解析证书私钥类型
func ParseKeyType(s string) (certcrypto.KeyType, error) {
	kt, ok := keyTypes[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("不支持的私钥类型: %s", s)
	}
	return kt, nil
}

// NewAccountKey 生成一次性 ACME 账号密钥
func NewAccountKey() (crypto.Signer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成账号密钥失败: %w", err)
	}
	return key, nil
}

// CSR 证书请求及其私钥
type CSR struct {
	DER    []byte
	KeyPEM []byte
}

// NewCSR 生成私钥并以 commonName 与 sans 构造 CSR，commonName 同时写入 SAN
func NewCSR(keyType certcrypto.KeyType, commonName string, sans []string) (*CSR, error) {
	names := lo.Uniq(append([]string{commonName}, sans...))

	key, err := certcrypto.GeneratePrivateKey(keyType)
	if err != nil {
		return nil, fmt.Errorf("生成证书私钥失败: %w", err)
	}

	der, err := certcrypto.GenerateCSR(key, commonName, names, false)
	if err != nil {
		return nil, fmt.Errorf("生成CSR失败: %w", err)
	}

	return &CSR{DER: der, KeyPEM: certcrypto.PEMEncode(key)}, nil
}
