package storage

import (
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/packager"
)

// 输出文件名
const (
	CertFile       = "cert.pem"
	KeyFile        = "key.pem"
	FullchainFile  = "fullchain.pem"
	PFXFile        = "cert.pfx"
	PassphraseFile = "pfx.pass"
)

// Files 写入磁盘的文件路径，未写入的为空
type Files struct {
	Dir        string
	Cert       string
	Key        string
	Fullchain  string
	PFX        string
	Passphrase string
}

// FileStorage 文件存储
type FileStorage struct {
	baseDir string
	logger  *slog.Logger
}

// NewFileStorage 创建文件存储
func NewFileStorage(baseDir string, logger *slog.Logger) *FileStorage {
	return &FileStorage{
		baseDir: baseDir,
		logger:  logging.Or(logger).With("component", "storage"),
	}
}

// SaveCertificate 按格式保存签发结果
func (s *FileStorage) SaveCertificate(name, format string, cert *packager.IssuedCertificate) (*Files, error) {
	outputDir := s.GetCertDir(name)

	// 创建输出目录
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	var (
		files *Files
		err   error
	)
	switch format {
	case packager.FormatPEM:
		files, err = s.savePEM(outputDir, cert)
	case packager.FormatPFX:
		files, err = s.savePFX(outputDir, cert)
	default:
		return nil, fmt.Errorf("%w: %s", packager.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("证书已保存", "dir", outputDir)
	return files, nil
}

func (s *FileStorage) savePEM(dir string, cert *packager.IssuedCertificate) (*Files, error) {
	files := &Files{
		Dir:       dir,
		Cert:      filepath.Join(dir, CertFile),
		Key:       filepath.Join(dir, KeyFile),
		Fullchain: filepath.Join(dir, FullchainFile),
	}

	// 叶子证书
	leaf := []byte(cert.Cert)
	if block, _ := pem.Decode(leaf); block != nil {
		leaf = pem.EncodeToMemory(block)
	}
	if err := os.WriteFile(files.Cert, leaf, 0644); err != nil {
		return nil, fmt.Errorf("保存证书失败: %w", err)
	}
	s.logger.Info("证书文件", "path", files.Cert)

	if err := os.WriteFile(files.Key, []byte(cert.PrivateKey), 0600); err != nil {
		return nil, fmt.Errorf("保存私钥失败: %w", err)
	}
	s.logger.Info("私钥文件", "path", files.Key)

	if err := os.WriteFile(files.Fullchain, []byte(cert.Cert), 0644); err != nil {
		return nil, fmt.Errorf("保存证书链失败: %w", err)
	}
	s.logger.Info("证书链文件", "path", files.Fullchain)

	return files, nil
}

func (s *FileStorage) savePFX(dir string, cert *packager.IssuedCertificate) (*Files, error) {
	data, err := base64.StdEncoding.DecodeString(cert.Cert)
	if err != nil {
		return nil, fmt.Errorf("解码PFX失败: %w", err)
	}

	files := &Files{
		Dir:        dir,
		PFX:        filepath.Join(dir, PFXFile),
		Passphrase: filepath.Join(dir, PassphraseFile),
	}
	if err := os.WriteFile(files.PFX, data, 0600); err != nil {
		return nil, fmt.Errorf("保存PFX失败: %w", err)
	}
	if err := os.WriteFile(files.Passphrase, []byte(cert.PrivateKey), 0600); err != nil {
		return nil, fmt.Errorf("保存PFX口令失败: %w", err)
	}
	s.logger.Info("PFX文件", "path", files.PFX, "passphrase", files.Passphrase)

	return files, nil
}

// GetCertDir 获取证书目录，通配符 * 替换为 _
func (s *FileStorage) GetCertDir(name string) string {
	return filepath.Join(s.baseDir, strings.ReplaceAll(name, "*", "_"))
}
