package core

import (
	"context"
	"fmt"
	"log/slog"

	"ssl-certgen/internal/acme"
	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/packager"
)

// GenerateCertRequest 一次签发请求
type GenerateCertRequest struct {
	Domain      string // 主域名，同时作为 DNS 区域
	SubDomain   string // 空、单级标签或 *
	CertType    string // pem, pfx
	Mode        string // staging, production
	DNSProvider string // 已配置的DNS提供商名称
	NotifyEmail string // ACME 账号联系邮箱
}

// EngineFactory 根据目录地址创建 ACME 引擎
type EngineFactory func(directoryURL string) (acme.Engine, error)

// Generator 证书签发器
type Generator struct {
	config    *config.Config
	factory   *Factory
	packager  *packager.Packager
	validator *Validator
	newEngine EngineFactory
	logger    *slog.Logger
}

// GeneratorOption 选项
type GeneratorOption func(*Generator)

// WithEngineFactory 替换 ACME 引擎的创建方式
func WithEngineFactory(f EngineFactory) GeneratorOption {
	return func(g *Generator) { g.newEngine = f }
}

// NewGenerator 创建签发器
func NewGenerator(cfg *config.Config, factory *Factory, pkg *packager.Packager, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		config:    cfg,
		factory:   factory,
		packager:  pkg,
		validator: NewValidator(),
		logger:    logging.Or(logger),
	}
	g.newEngine = g.defaultEngine
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) defaultEngine(directoryURL string) (acme.Engine, error) {
	key, err := acme.NewAccountKey()
	if err != nil {
		return nil, err
	}

	opts := []acme.Option{acme.WithLogger(g.logger)}
	if len(g.config.ACME.Resolvers) > 0 {
		opts = append(opts, acme.WithChecker(acme.NewChecker(g.config.ACME.Resolvers, 0)))
	}
	return acme.NewClient(directoryURL, key, opts...), nil
}

// directoryURL 请求未指定 Mode 时优先使用配置的自定义目录
func (g *Generator) directoryURL(mode string) (string, error) {
	if mode == "" {
		if g.config.ACME.DirectoryURL != "" {
			return g.config.ACME.DirectoryURL, nil
		}
		mode = g.config.ACME.Mode
	}
	return acme.DirectoryURL(mode)
}

// Generate 完成一次 DNS-01 签发并按 CertType 打包
func (g *Generator) Generate(ctx context.Context, req GenerateCertRequest) (*packager.IssuedCertificate, error) {
	plan, err := domain.NewPlan(req.Domain, req.SubDomain)
	if err != nil {
		return nil, err
	}
	if err := packager.CheckFormat(req.CertType); err != nil {
		return nil, err
	}
	directoryURL, err := g.directoryURL(req.Mode)
	if err != nil {
		return nil, err
	}
	keyType, err := acme.ParseKeyType(g.config.ACME.KeyType)
	if err != nil {
		return nil, err
	}

	dnsName := req.DNSProvider
	if dnsName == "" {
		dnsName = g.config.DNSProvider
	}
	publisher, err := g.factory.DNSPublisher(dnsName)
	if err != nil {
		return nil, err
	}

	engine, err := g.newEngine(directoryURL)
	if err != nil {
		return nil, err
	}

	email := req.NotifyEmail
	if email == "" {
		email = g.config.ACME.Email
	}

	g.logger.Info("开始签发证书",
		"names", plan.Names(),
		"record_set", plan.RecordSetName,
		"zone", plan.Zone,
		"dns", publisher.Name(),
		"format", req.CertType,
	)

	if err := engine.CreateAccount(ctx, email); err != nil {
		return nil, err
	}

	order, err := engine.CreateOrder(ctx, plan.Identifiers)
	if err != nil {
		return nil, err
	}

	authzs, err := engine.Authorizations(ctx, order)
	if err != nil {
		return nil, err
	}

	orchestrator := NewOrchestrator(engine, publisher,
		WithPropagationDelay(g.config.ACME.PropagationDelay),
		WithRecordTTL(g.config.ACME.RecordTTL),
		WithOrchestratorLogger(g.logger),
	)
	if err := orchestrator.Solve(ctx, plan, authzs); err != nil {
		return nil, err
	}

	csr, err := acme.NewCSR(keyType, plan.CommonName, plan.SANs)
	if err != nil {
		return nil, err
	}
	if err := engine.FinalizeOrder(ctx, order, csr.DER); err != nil {
		return nil, err
	}

	chain, err := engine.Certificate(ctx, order)
	if err != nil {
		return nil, err
	}

	leaf, err := g.validator.CheckCertificate(chain, plan.Names())
	if err != nil {
		return nil, fmt.Errorf("签发的证书无效: %w", err)
	}
	g.logger.Info("证书已签发", "common_name", plan.CommonName, "not_after", leaf.NotAfter)

	return g.packager.Package(ctx, csr.KeyPEM, chain, req.CertType, plan.CommonName)
}
