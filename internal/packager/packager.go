package packager

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/runner"
)

// 证书输出格式
const (
	FormatPEM = "pem"
	FormatPFX = "pfx"
)

const (
	tempPattern    = "convertCert-*"
	keyFile        = "pem.key"
	certFile       = "pem.cert"
	pfxFile        = "out.pfx"
	passphraseEnv  = "PFX_PASSPHRASE"
	passphraseSize = 64
)

// ErrUnsupportedFormat 不支持的证书格式
var ErrUnsupportedFormat = errors.New("不支持的证书格式")

// IssuedCertificate 签发结果
//
// pem 格式下 Cert 为证书链，PrivateKey 为私钥；
// pfx 格式下 Cert 为 base64 编码的 PKCS#12 文件，PrivateKey 为其口令。
type IssuedCertificate struct {
	Cert              string
	PrivateKey        string
	ExpiryDateEpochMs int64
}

// CheckFormat 校验证书格式
func CheckFormat(format string) error {
	switch format {
	case FormatPEM, FormatPFX:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Packager 证书打包器
type Packager struct {
	runner  runner.Runner
	openssl string
	logger  *slog.Logger
}

// New 创建打包器，opensslPath 为空时使用 PATH 中的 openssl
func New(r runner.Runner, opensslPath string, logger *slog.Logger) *Packager {
	if opensslPath == "" {
		opensslPath = "openssl"
	}
	return &Packager{
		runner:  r,
		openssl: opensslPath,
		logger:  logging.Or(logger).With("component", "packager"),
	}
}

// Package 将私钥和证书链打包为指定格式
func (p *Packager) Package(ctx context.Context, keyPEM, certPEM []byte, format, commonName string) (*IssuedCertificate, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}

	expiry, err := ExpiryEpochMs(certPEM, commonName)
	if err != nil {
		return nil, err
	}

	if format == FormatPEM {
		return &IssuedCertificate{
			Cert:              string(certPEM),
			PrivateKey:        string(keyPEM),
			ExpiryDateEpochMs: expiry,
		}, nil
	}

	pfx, passphrase, err := p.toPFX(ctx, keyPEM, certPEM)
	if err != nil {
		return nil, err
	}

	return &IssuedCertificate{
		Cert:              base64.StdEncoding.EncodeToString(pfx),
		PrivateKey:        passphrase,
		ExpiryDateEpochMs: expiry,
	}, nil
}

// toPFX 通过 openssl 生成 PKCS#12，临时目录在返回前删除
func (p *Packager) toPFX(ctx context.Context, keyPEM, certPEM []byte) ([]byte, string, error) {
	dir, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return nil, "", fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("清理临时目录失败", "dir", dir, "error", err)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, keyFile), keyPEM, 0600); err != nil {
		return nil, "", fmt.Errorf("写入私钥失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, certFile), certPEM, 0644); err != nil {
		return nil, "", fmt.Errorf("写入证书失败: %w", err)
	}

	passphrase, err := newPassphrase()
	if err != nil {
		return nil, "", err
	}

	cmd := runner.Command{
		Name: p.openssl,
		Args: []string{
			"pkcs12", "-export",
			"-out", pfxFile,
			"-passout", "env:" + passphraseEnv,
			"-inkey", keyFile,
			"-in", certFile,
		},
		Env: map[string]string{passphraseEnv: passphrase},
		Dir: dir,
	}
	p.logger.Debug("转换PFX", "command", cmd.String())

	if err := runner.Check("openssl 转换PFX失败", p.runner.Run(ctx, cmd)); err != nil {
		return nil, "", err
	}

	pfx, err := os.ReadFile(filepath.Join(dir, pfxFile))
	if err != nil {
		return nil, "", fmt.Errorf("读取PFX文件失败: %w", err)
	}
	return pfx, passphrase, nil
}

func newPassphrase() (string, error) {
	b := make([]byte, passphraseSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成PFX口令失败: %w", err)
	}
	return hex.EncodeToString(b), nil
}
