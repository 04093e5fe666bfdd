package config

import "time"

// Config 配置结构
type Config struct {
	// 云平台凭证配置
	Providers ProvidersConfig `yaml:"providers" envPrefix:"PROVIDERS_"`

	ACME   ACMEConfig   `yaml:"acme" envPrefix:"ACME_"`
	Output OutputConfig `yaml:"output" envPrefix:"OUTPUT_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`

	// 默认DNS提供商：azure, aliyun, tencent, huawei
	DNSProvider string `yaml:"dns_provider" env:"DNS_PROVIDER"`

	// 证书写入磁盘后执行的命令
	PostCommand string `yaml:"post_command" env:"POST_COMMAND"`

	// 签发后上传到云平台证书服务（可选）
	Upload *UploadConfig `yaml:"upload,omitempty"`

	// Webhook 通知配置
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`
}

// ProvidersConfig 云平台凭证配置
type ProvidersConfig struct {
	Azure   *AzureConfig   `yaml:"azure,omitempty" envPrefix:"AZURE_"`
	Aliyun  *AliyunConfig  `yaml:"aliyun,omitempty" envPrefix:"ALIYUN_"`
	Tencent *TencentConfig `yaml:"tencent,omitempty" envPrefix:"TENCENT_"`
	Huawei  *HuaweiConfig  `yaml:"huawei,omitempty" envPrefix:"HUAWEI_"`
}

// AzureConfig Azure DNS 配置（通过 az CLI 操作，登录由外部完成）
type AzureConfig struct {
	SubscriptionID string `yaml:"subscription_id" env:"SUBSCRIPTION_ID"`
	ResourceGroup  string `yaml:"resource_group" env:"RESOURCE_GROUP"`
	CLIPath        string `yaml:"cli_path" env:"CLI_PATH"`
}

// AliyunConfig 阿里云配置
type AliyunConfig struct {
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	AccessKeySecret string `yaml:"access_key_secret" env:"ACCESS_KEY_SECRET"`
	Region          string `yaml:"region" env:"REGION"`
}

// TencentConfig 腾讯云配置
type TencentConfig struct {
	SecretID  string `yaml:"secret_id" env:"SECRET_ID"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Region    string `yaml:"region" env:"REGION"`
}

// HuaweiConfig 华为云配置
type HuaweiConfig struct {
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Region    string `yaml:"region" env:"REGION"`
	ProjectID string `yaml:"project_id" env:"PROJECT_ID"`
}

// ACMEConfig ACME 签发配置
type ACMEConfig struct {
	Email string `yaml:"email" env:"EMAIL"`
	Mode  string `yaml:"mode" env:"MODE"` // staging, production

	// 自定义目录地址，设置后忽略 Mode
	DirectoryURL string `yaml:"directory_url" env:"DIRECTORY_URL"`

	KeyType string `yaml:"key_type" env:"KEY_TYPE"` // RSA2048, RSA3072, RSA4096, EC256(P256), EC384(P384)

	// 发布TXT记录后的等待时间
	PropagationDelay time.Duration `yaml:"propagation_delay" env:"PROPAGATION_DELAY"`
	RecordTTL        int           `yaml:"record_ttl" env:"RECORD_TTL"`

	// 接受挑战前用这些DNS服务器检查TXT记录，为空时跳过
	Resolvers []string `yaml:"resolvers,omitempty" env:"RESOLVERS" envSeparator:","`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir         string `yaml:"dir" env:"DIR"`
	OpenSSLPath string `yaml:"openssl_path" env:"OPENSSL_PATH"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // text, json
}

// UploadConfig 证书上传配置
type UploadConfig struct {
	Provider string `yaml:"provider"` // aliyun, tencent, huawei
	Name     string `yaml:"name,omitempty"`
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	Enabled      bool              `yaml:"enabled"`                 // 是否启用
	URL          string            `yaml:"url"`                     // Webhook URL
	Headers      map[string]string `yaml:"headers,omitempty"`       // 自定义请求头
	Events       []string          `yaml:"events,omitempty"`        // 订阅的事件类型
	Timeout      int               `yaml:"timeout,omitempty"`       // 请求超时时间（秒），默认30
	Retries      int               `yaml:"retries,omitempty"`       // 重试次数，默认3
	BodyTemplate string            `yaml:"body_template,omitempty"` // 请求体模板（JSON格式）
}
