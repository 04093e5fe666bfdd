package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ssl-certgen/internal/acme"
	"ssl-certgen/internal/config"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
	"ssl-certgen/internal/provider"
)

// ErrNoDNSChallenge 授权中没有 dns-01 挑战
var ErrNoDNSChallenge = errors.New("授权中没有 dns-01 挑战")

// Orchestrator 依次完成订单下每个授权的 DNS-01 挑战
type Orchestrator struct {
	engine      acme.Engine
	publisher   provider.DNSPublisher
	propagation time.Duration
	ttl         int
	logger      *slog.Logger
}

// OrchestratorOption 选项
type OrchestratorOption func(*Orchestrator)

// WithPropagationDelay 设置发布记录后的等待时长
func WithPropagationDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.propagation = d }
}

// WithRecordTTL 设置记录集 TTL（秒）
func WithRecordTTL(ttl int) OrchestratorOption {
	return func(o *Orchestrator) { o.ttl = ttl }
}

// WithOrchestratorLogger 设置日志记录器
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator 创建编排器
func NewOrchestrator(engine acme.Engine, publisher provider.DNSPublisher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		engine:      engine,
		publisher:   publisher,
		propagation: config.DefaultPropagationDelay,
		ttl:         config.DefaultRecordTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.Or(o.logger).With("component", "orchestrator", "dns", publisher.Name())
	return o
}

// Solve 在 plan.Zone 下的 plan.RecordSetName 记录集上完成全部授权
//
// 记录集创建成功后，无论成功失败都会尝试删除记录集。
func (o *Orchestrator) Solve(ctx context.Context, plan *domain.Plan, authzs []*acme.Authorization) error {
	zone := plan.Zone
	create := provider.RecordRequest{
		Op:   provider.OpCreate,
		Zone: zone,
		Name: plan.RecordSetName,
		TTL:  o.ttl,
	}
	if err := o.publisher.Apply(ctx, create); err != nil {
		return fmt.Errorf("创建TXT记录集失败: %w", err)
	}
	defer o.deleteRecordSet(ctx, zone, plan.RecordSetName)

	for _, authz := range authzs {
		if authz.Status == acme.StatusValid {
			o.logger.Info("授权已有效，跳过", "identifier", authz.Identifier.Value)
			continue
		}
		if err := o.solve(ctx, plan, zone, authz); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) solve(ctx context.Context, plan *domain.Plan, zone string, authz *acme.Authorization) error {
	identifier := authz.Identifier.Value

	ch := authz.FindChallenge(acme.ChallengeDNS01)
	if ch == nil {
		return fmt.Errorf("%w: %s", ErrNoDNSChallenge, identifier)
	}

	value, err := o.engine.KeyAuthorization(ch)
	if err != nil {
		return err
	}

	add := provider.RecordRequest{
		Op:    provider.OpAdd,
		Zone:  zone,
		Name:  plan.RecordSetName,
		TTL:   o.ttl,
		Value: value,
	}
	if err := o.publisher.Apply(ctx, add); err != nil {
		return fmt.Errorf("发布TXT记录失败: %w", err)
	}
	defer o.removeValue(ctx, zone, plan.RecordSetName, value)

	fqdn := domain.FQDN(plan.RecordSetName, zone)
	o.logger.Info("TXT记录已发布，等待生效",
		"identifier", identifier,
		"fqdn", fqdn,
		"wait", o.propagation,
	)
	if err := Pause(ctx, o.propagation); err != nil {
		return err
	}

	if err := o.engine.VerifyChallenge(ctx, authz, fqdn, value); err != nil {
		return fmt.Errorf("域名 %s 验证失败: %w", identifier, err)
	}
	if err := o.engine.CompleteChallenge(ctx, ch); err != nil {
		return fmt.Errorf("域名 %s 验证失败: %w", identifier, err)
	}
	if err := o.engine.WaitForValid(ctx, authz); err != nil {
		return fmt.Errorf("域名 %s 验证失败: %w", identifier, err)
	}

	o.logger.Info("域名验证通过", "identifier", identifier)
	return nil
}

func (o *Orchestrator) removeValue(ctx context.Context, zone, name, value string) {
	req := provider.RecordRequest{Op: provider.OpRemove, Zone: zone, Name: name, Value: value}
	if err := o.publisher.Apply(context.WithoutCancel(ctx), req); err != nil {
		o.logger.Warn("移除TXT记录失败", "zone", zone, "name", name, "error", err)
	}
}

func (o *Orchestrator) deleteRecordSet(ctx context.Context, zone, name string) {
	req := provider.RecordRequest{Op: provider.OpDelete, Zone: zone, Name: name}
	if err := o.publisher.Apply(context.WithoutCancel(ctx), req); err != nil {
		o.logger.Warn("删除TXT记录集失败", "zone", zone, "name", name, "error", err)
	}
}
