package azure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
	"ssl-certgen/internal/runner"
)

// DNSProvider Azure DNS提供商，通过 az CLI 操作 TXT 记录集
type DNSProvider struct {
	runner runner.Runner
	cfg    config.AzureConfig
	logger *slog.Logger
}

// NewDNSProvider 创建 Azure DNS提供商
func NewDNSProvider(cfg *config.AzureConfig, r runner.Runner, logger *slog.Logger) (*DNSProvider, error) {
	if cfg == nil || cfg.ResourceGroup == "" {
		return nil, fmt.Errorf("azure 未配置 resource_group")
	}
	c := *cfg
	if c.CLIPath == "" {
		c.CLIPath = "az"
	}
	return &DNSProvider{
		runner: r,
		cfg:    c,
		logger: logging.Or(logger).With("component", "azure-dns"),
	}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "azure"
}

// Apply 执行一次记录集操作
func (p *DNSProvider) Apply(ctx context.Context, req provider.RecordRequest) error {
	cmd, err := p.command(req)
	if err != nil {
		return err
	}

	p.logger.Debug("执行 az 命令", "op", req.Op, "cmd", cmd.String())
	res := p.runner.Run(ctx, cmd)
	if err := runner.Check(describe(req.Op), res); err != nil {
		return err
	}

	p.logger.Info("记录集操作完成", "op", req.Op, "zone", req.Zone, "name", req.Name)
	return nil
}

// command 把记录集操作翻译为 az network dns record-set txt 子命令
func (p *DNSProvider) command(req provider.RecordRequest) (runner.Command, error) {
	var args []string
	switch req.Op {
	case provider.OpCreate:
		args = append(p.base("create", req.Zone), "--name", req.Name, "--ttl", strconv.Itoa(req.TTL))
	case provider.OpAdd:
		args = append(p.base("add-record", req.Zone), "--record-set-name", req.Name, "--value", req.Value)
	case provider.OpRemove:
		args = append(p.base("remove-record", req.Zone), "--record-set-name", req.Name, "--value", req.Value,
			"--keep-empty-record-set")
	case provider.OpDelete:
		args = append(p.base("delete", req.Zone), "--name", req.Name, "--yes")
	default:
		return runner.Command{}, fmt.Errorf("不支持的记录集操作: %s", req.Op)
	}
	return runner.Command{Name: p.cfg.CLIPath, Args: args}, nil
}

func (p *DNSProvider) base(action, zone string) []string {
	args := []string{"network", "dns", "record-set", "txt", action}
	if p.cfg.SubscriptionID != "" {
		args = append(args, "--subscription", p.cfg.SubscriptionID)
	}
	return append(args, "--resource-group", p.cfg.ResourceGroup, "--zone-name", zone)
}

func describe(op provider.RecordOp) string {
	switch op {
	case provider.OpCreate:
		return "创建TXT记录集失败"
	case provider.OpAdd:
		return "添加TXT记录失败"
	case provider.OpRemove:
		return "移除TXT记录失败"
	default:
		return "删除TXT记录集失败"
	}
}
