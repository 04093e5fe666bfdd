package acme

import (
	"context"
	"crypto"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	xacme "golang.org/x/crypto/acme"

	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/logging"
)

const userAgent = "ssl-certgen"

// Client 基于 golang.org/x/crypto/acme 的 Engine 实现
type Client struct {
	client  *xacme.Client
	checker *Checker
	logger  *slog.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithChecker 设置接受挑战前的 TXT 预检
func WithChecker(c *Checker) Option {
	return func(cl *Client) { cl.checker = c }
}

// WithLogger 设置日志记录器
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient 创建 ACME 客户端
func NewClient(directoryURL string, accountKey crypto.Signer, opts ...Option) *Client {
	c := &Client{
		client: &xacme.Client{
			Key:          accountKey,
			DirectoryURL: directoryURL,
			UserAgent:    userAgent,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Or(c.logger).With("component", "acme")
	return c
}

// CreateAccount 注册账号
func (c *Client) CreateAccount(ctx context.Context, email string) error {
	account := &xacme.Account{}
	if email != "" {
		account.Contact = []string{"mailto:" + email}
	}

	_, err := c.client.Register(ctx, account, xacme.AcceptTOS)
	if err != nil && !errors.Is(err, xacme.ErrAccountAlreadyExists) {
		return fmt.Errorf("创建ACME账号失败: %w", err)
	}

	c.logger.Info("ACME账号已就绪", "directory", c.client.DirectoryURL)
	return nil
}

// CreateOrder 创建订单
func (c *Client) CreateOrder(ctx context.Context, identifiers []domain.Identifier) (*Order, error) {
	ids := lo.Map(identifiers, func(id domain.Identifier, _ int) xacme.AuthzID {
		return xacme.AuthzID{Type: id.Type, Value: id.Value}
	})

	o, err := c.client.AuthorizeOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	c.logger.Info("订单已创建", "order", o.URI, "authorizations", len(o.AuthzURLs))
	return convertOrder(o), nil
}

// Authorizations 获取订单下的全部授权
func (c *Client) Authorizations(ctx context.Context, order *Order) ([]*Authorization, error) {
	authzs := make([]*Authorization, 0, len(order.AuthzURLs))
	for _, u := range order.AuthzURLs {
		a, err := c.client.GetAuthorization(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("获取授权失败: %w", err)
		}
		authzs = append(authzs, convertAuthorization(a))
	}
	return authzs, nil
}

// KeyAuthorization 计算 TXT 记录值
func (c *Client) KeyAuthorization(ch *Challenge) (string, error) {
	value, err := c.client.DNS01ChallengeRecord(ch.Token)
	if err != nil {
		return "", fmt.Errorf("计算挑战记录失败: %w", err)
	}
	return value, nil
}

// VerifyChallenge 未配置预检时直接通过
func (c *Client) VerifyChallenge(ctx context.Context, authz *Authorization, fqdn, value string) error {
	if c.checker == nil {
		return nil
	}
	c.logger.Info("检查TXT记录", "fqdn", fqdn, "identifier", authz.Identifier.Value)
	return c.checker.Check(ctx, fqdn, value)
}

// CompleteChallenge 接受挑战
func (c *Client) CompleteChallenge(ctx context.Context, ch *Challenge) error {
	_, err := c.client.Accept(ctx, &xacme.Challenge{Type: ch.Type, URI: ch.URI, Token: ch.Token})
	if err != nil {
		return fmt.Errorf("接受挑战失败: %w", err)
	}
	return nil
}

// WaitForValid 等待授权生效
func (c *Client) WaitForValid(ctx context.Context, authz *Authorization) error {
	a, err := c.client.WaitAuthorization(ctx, authz.URI)
	if err != nil {
		return fmt.Errorf("验证失败: %w", err)
	}
	authz.Status = a.Status
	return nil
}

// FinalizeOrder 等待订单 ready 后提交 CSR
func (c *Client) FinalizeOrder(ctx context.Context, order *Order, csr []byte) error {
	o, err := c.client.WaitOrder(ctx, order.URI)
	if err != nil {
		return fmt.Errorf("等待订单就绪失败: %w", err)
	}

	_, certURL, err := c.client.CreateOrderCert(ctx, o.FinalizeURL, csr, true)
	if err != nil {
		return fmt.Errorf("提交CSR失败: %w", err)
	}

	order.Status = StatusValid
	order.CertURL = certURL
	return nil
}

// Certificate 下载证书链
func (c *Client) Certificate(ctx context.Context, order *Order) ([]byte, error) {
	if order.CertURL == "" {
		return nil, errors.New("订单尚未签发证书")
	}

	der, err := c.client.FetchCert(ctx, order.CertURL, true)
	if err != nil {
		return nil, fmt.Errorf("下载证书失败: %w", err)
	}

	var out []byte
	for _, b := range der {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: b})...)
	}
	return out, nil
}

func convertOrder(o *xacme.Order) *Order {
	return &Order{
		URI:    o.URI,
		Status: o.Status,
		Identifiers: lo.Map(o.Identifiers, func(id xacme.AuthzID, _ int) domain.Identifier {
			return domain.Identifier{Type: id.Type, Value: id.Value}
		}),
		AuthzURLs:   o.AuthzURLs,
		FinalizeURL: o.FinalizeURL,
		CertURL:     o.CertURL,
	}
}

func convertAuthorization(a *xacme.Authorization) *Authorization {
	return &Authorization{
		URI:        a.URI,
		Status:     a.Status,
		Identifier: domain.Identifier{Type: a.Identifier.Type, Value: a.Identifier.Value},
		Wildcard:   a.Wildcard,
		Challenges: lo.Map(a.Challenges, func(ch *xacme.Challenge, _ int) *Challenge {
			return &Challenge{Type: ch.Type, URI: ch.URI, Token: ch.Token, Status: ch.Status}
		}),
	}
}
