package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/core"
	"ssl-certgen/internal/daemon"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/packager"
	"ssl-certgen/internal/runner"
)

type generateOptions struct {
	req              core.GenerateCertRequest
	outDir           string
	propagationDelay time.Duration
	jsonOutput       bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "签发证书",
		Example: `  ssl-certgen generate --domain example.com --dns-provider aliyun
  ssl-certgen generate --domain example.com --sub-domain '*' --type pfx --mode production
  ssl-certgen generate -c prod.yaml --domain example.com --sub-domain api --out /etc/ssl/acme`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.req.Domain, "domain", "d", "", "主域名（DNS 区域）")
	f.StringVarP(&opts.req.SubDomain, "sub-domain", "s", "", "子域名：留空、单级标签或 *")
	f.StringVarP(&opts.req.CertType, "type", "t", packager.FormatPEM, "证书格式：pem, pfx")
	f.StringVarP(&opts.req.Mode, "mode", "m", "", "签发环境：staging, production（默认取配置）")
	f.StringVar(&opts.req.DNSProvider, "dns-provider", "", "DNS提供商（默认取配置）")
	f.StringVarP(&opts.req.NotifyEmail, "email", "e", "", "ACME 账号邮箱（默认取配置）")
	f.StringVarP(&opts.outDir, "out", "o", "", "证书输出目录（默认取配置）")
	f.DurationVar(&opts.propagationDelay, "propagation-delay", 0, "发布TXT记录后的等待时间")
	f.BoolVar(&opts.jsonOutput, "json", false, "以 JSON 输出结果")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func runGenerate(ctx context.Context, opts *generateOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	sigHandler := daemon.NewSignalHandler(ctx, logger)
	sigHandler.Start()
	defer sigHandler.Stop()

	manager := core.NewManager(cfg, runner.NewShellRunner(), logger)
	res, err := manager.Run(sigHandler.Context(), opts.req)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

// apply 命令行参数覆盖配置
func (o *generateOptions) apply(cfg *config.Config) {
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.propagationDelay > 0 {
		cfg.ACME.PropagationDelay = o.propagationDelay
	}
}
