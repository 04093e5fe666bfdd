package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SSL_CERTGEN_"

const (
	DefaultPropagationDelay = 30 * time.Second
	DefaultRecordTTL        = 20
)

// Load 加载配置文件，再用环境变量覆盖
//
// 配置文件不存在时只使用环境变量和默认值。
func Load(path string) (*Config, error) {
	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults 设置默认值
func applyDefaults(config *Config) {
	if config.ACME.Mode == "" {
		config.ACME.Mode = "staging"
	}
	if config.ACME.KeyType == "" {
		config.ACME.KeyType = "RSA2048"
	}
	if config.ACME.PropagationDelay <= 0 {
		config.ACME.PropagationDelay = DefaultPropagationDelay
	}
	if config.ACME.RecordTTL <= 0 {
		config.ACME.RecordTTL = DefaultRecordTTL
	}
	if config.Output.Dir == "" {
		config.Output.Dir = "./certs"
	}
	if config.Output.OpenSSLPath == "" {
		config.Output.OpenSSLPath = "openssl"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validate 验证配置
func validate(config *Config) error {
	switch config.ACME.Mode {
	case "staging", "production":
	default:
		if config.ACME.DirectoryURL == "" {
			return fmt.Errorf("不支持的 acme.mode: %s", config.ACME.Mode)
		}
	}

	if config.DNSProvider != "" {
		if err := ValidateProvider(config, config.DNSProvider, "DNS"); err != nil {
			return err
		}
	}

	if config.Upload != nil && config.Upload.Provider != "" {
		if config.Upload.Provider == "azure" {
			return fmt.Errorf("证书上传不支持 azure")
		}
		if err := ValidateProvider(config, config.Upload.Provider, "证书"); err != nil {
			return err
		}
	}

	if config.Webhook != nil && config.Webhook.Enabled && config.Webhook.URL == "" {
		return fmt.Errorf("webhook 已启用但未配置 url")
	}

	return nil
}

// ValidateProvider 验证提供商配置是否存在
func ValidateProvider(config *Config, providerName, providerType string) error {
	switch providerName {
	case "azure":
		if config.Providers.Azure == nil {
			return fmt.Errorf("%s提供商 azure 未配置", providerType)
		}
		if config.Providers.Azure.ResourceGroup == "" {
			return fmt.Errorf("azure 未配置 resource_group")
		}
	case "aliyun":
		if config.Providers.Aliyun == nil {
			return fmt.Errorf("%s提供商 aliyun 未配置凭证", providerType)
		}
		if config.Providers.Aliyun.AccessKeyID == "" || config.Providers.Aliyun.AccessKeySecret == "" {
			return fmt.Errorf("aliyun 凭证不完整")
		}
	case "tencent":
		if config.Providers.Tencent == nil {
			return fmt.Errorf("%s提供商 tencent 未配置凭证", providerType)
		}
		if config.Providers.Tencent.SecretID == "" || config.Providers.Tencent.SecretKey == "" {
			return fmt.Errorf("tencent 凭证不完整")
		}
	case "huawei":
		if config.Providers.Huawei == nil {
			return fmt.Errorf("%s提供商 huawei 未配置凭证", providerType)
		}
		if config.Providers.Huawei.AccessKey == "" || config.Providers.Huawei.SecretKey == "" {
			return fmt.Errorf("huawei 凭证不完整")
		}
	default:
		return fmt.Errorf("不支持的%s提供商: %s", providerType, providerName)
	}
	return nil
}
