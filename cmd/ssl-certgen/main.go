package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ssl-certgen",
		Short: "通过 ACME DNS-01 签发 TLS 证书",
		Long: `ssl-certgen 通过 Let's Encrypt 的 DNS-01 验证签发单个 TLS 证书。

支持的DNS提供商:
  - azure    Azure DNS (通过 az CLI)
  - aliyun   阿里云解析
  - tencent  腾讯云 DNSPod
  - huawei   华为云 DNS

签发结果可输出为 pem 或 pfx，并可上传到阿里云、腾讯云、华为云的证书服务。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "配置文件路径")
	root.AddCommand(newGenerateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("ssl-certgen", version)
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
