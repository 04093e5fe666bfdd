package core

import (
	"context"
	"log/slog"

	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/runner"
)

// Executor 后置命令执行器
type Executor struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewExecutor 创建执行器
func NewExecutor(r runner.Runner, logger *slog.Logger) *Executor {
	return &Executor{
		runner: r,
		logger: logging.Or(logger).With("component", "post-command"),
	}
}

// RunPostCommand 替换变量后通过 sh -c 执行后置命令
func (e *Executor) RunPostCommand(ctx context.Context, command string, vars map[string]string) error {
	if command == "" {
		return nil
	}

	command = runner.Expand(command, vars)
	e.logger.Info("执行后置命令", "command", command)

	res := runner.RunShell(ctx, e.runner, command)
	if res.Stdout != "" {
		e.logger.Debug("后置命令输出", "stdout", res.Stdout)
	}
	if err := runner.Check("执行后置命令失败", res); err != nil {
		return err
	}

	e.logger.Info("后置命令执行成功")
	return nil
}

// BuildVars 构建变量映射
func (e *Executor) BuildVars(domain, certDir, certFile, keyFile, fullchainFile string) map[string]string {
	return map[string]string{
		"DOMAIN":         domain,
		"CERT_DIR":       certDir,
		"CERT_FILE":      certFile,
		"KEY_FILE":       keyFile,
		"FULLCHAIN_FILE": fullchainFile,
	}
}
