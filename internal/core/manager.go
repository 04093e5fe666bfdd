package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/notification"
	"ssl-certgen/internal/packager"
	"ssl-certgen/internal/runner"
	"ssl-certgen/internal/storage"
)

// Result 一次运行的产出
type Result struct {
	RunID       string
	CommonName  string
	Certificate *packager.IssuedCertificate
	Files       *storage.Files
	CertID      string // 上传到云平台后的证书ID
}

// Manager 证书管理器
//
// 签发证书后写入磁盘，再按配置上传证书、执行后置命令、发送通知。
type Manager struct {
	config   *config.Config
	factory  *Factory
	packager *packager.Packager
	storage  *storage.FileStorage
	executor *Executor
	notifier *notification.WebhookNotifier
	genOpts  []GeneratorOption
	logger   *slog.Logger
}

// NewManager 创建管理器
func NewManager(cfg *config.Config, r runner.Runner, logger *slog.Logger, opts ...GeneratorOption) *Manager {
	logger = logging.Or(logger)
	return &Manager{
		config:   cfg,
		factory:  NewFactory(cfg, r, logger),
		packager: packager.New(r, cfg.Output.OpenSSLPath, logger),
		storage:  storage.NewFileStorage(cfg.Output.Dir, logger),
		executor: NewExecutor(r, logger),
		notifier: notification.NewWebhookNotifier(cfg.Webhook, logger),
		genOpts:  opts,
		logger:   logger,
	}
}

// Run 处理一次签发请求
func (m *Manager) Run(ctx context.Context, req GenerateCertRequest) (*Result, error) {
	runID := uuid.NewString()
	logger := m.logger.With("run_id", runID, "domain", req.Domain)

	logger.Info("========== 开始签发证书 ==========")

	generator := NewGenerator(m.config, m.factory, m.packager, logger, m.genOpts...)
	cert, err := generator.Generate(ctx, req)
	if err != nil {
		m.notifyFailed(ctx, req.Domain, runID, err)
		return nil, err
	}

	plan, err := domain.NewPlan(req.Domain, req.SubDomain)
	if err != nil {
		return nil, err
	}

	files, err := m.storage.SaveCertificate(plan.CommonName, req.CertType, cert)
	if err != nil {
		err = fmt.Errorf("保存证书失败: %w", err)
		m.notifyFailed(ctx, req.Domain, runID, err)
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		CommonName:  plan.CommonName,
		Certificate: cert,
		Files:       files,
	}

	result.CertID = m.upload(ctx, logger, plan.CommonName, req.CertType, cert)

	if postCommand := m.config.PostCommand; postCommand != "" {
		vars := m.executor.BuildVars(plan.CommonName, files.Dir, files.Cert, files.Key, files.Fullchain)
		if err := m.executor.RunPostCommand(ctx, postCommand, vars); err != nil {
			logger.Warn("执行后置命令失败", "error", err)
		}
	}

	expiry := time.UnixMilli(cert.ExpiryDateEpochMs)
	if err := m.notifier.NotifyCertIssued(ctx, plan.CommonName, runID, expiry, result.CertID); err != nil {
		logger.Warn("发送通知失败", "error", err)
	}

	logger.Info("========== 证书签发完成 ==========", "expires_at", expiry.Format(time.DateTime))
	return result, nil
}

// upload 上传到云平台证书服务，仅支持 pem，失败只记录警告
func (m *Manager) upload(ctx context.Context, logger *slog.Logger, commonName, format string, cert *packager.IssuedCertificate) string {
	if m.config.Upload == nil || m.config.Upload.Provider == "" {
		return ""
	}
	if format != packager.FormatPEM {
		logger.Warn("证书上传仅支持 pem 格式，已跳过", "format", format)
		return ""
	}

	uploader, err := m.factory.CertUploader(m.config.Upload.Provider)
	if err != nil {
		logger.Warn("获取证书上传提供商失败", "error", err)
		return ""
	}

	name := m.config.Upload.Name
	if name == "" {
		name = strings.ReplaceAll(commonName, "*", "_") + "-" + time.Now().Format("20060102150405")
	}

	certID, err := uploader.Upload(ctx, name, cert.Cert, cert.PrivateKey)
	if err != nil {
		logger.Warn("上传证书失败", "provider", uploader.Name(), "error", err)
		return ""
	}
	logger.Info("证书已上传", "provider", uploader.Name(), "cert_id", certID)
	return certID
}

func (m *Manager) notifyFailed(ctx context.Context, domain, runID string, cause error) {
	if err := m.notifier.NotifyCertFailed(context.WithoutCancel(ctx), domain, runID, cause.Error()); err != nil {
		m.logger.Warn("发送通知失败", "error", err)
	}
}
