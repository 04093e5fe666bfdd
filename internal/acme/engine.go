package acme

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-acme/lego/v4/lego"

	"ssl-certgen/internal/domain"
)

// 签发环境
const (
	ModeStaging    = "staging"
	ModeProduction = "production"
)

// ChallengeDNS01 DNS-01 挑战类型
const ChallengeDNS01 = "dns-01"

// 状态
const (
	StatusPending = "pending"
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// ErrInvalidMode 不支持的签发环境
var ErrInvalidMode = errors.New("不支持的 letsEncryptMode")

// DirectoryURL 返回签发环境对应的 Let's Encrypt 目录地址
func DirectoryURL(mode string) (string, error) {
	switch mode {
	case ModeStaging:
		return lego.LEDirectoryStaging, nil
	case ModeProduction:
		return lego.LEDirectoryProduction, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
}

// Order ACME 订单
type Order struct {
	URI         string
	Status      string
	Identifiers []domain.Identifier
	AuthzURLs   []string
	FinalizeURL string
	CertURL     string
}

// Authorization 单个标识的授权
type Authorization struct {
	URI        string
	Status     string
	Identifier domain.Identifier
	Wildcard   bool
	Challenges []*Challenge
}

// Challenge 授权提供的一种挑战
type Challenge struct {
	Type   string
	URI    string
	Token  string
	Status string
}

// FindChallenge 返回指定类型的挑战，没有时返回 nil
func (a *Authorization) FindChallenge(typ string) *Challenge {
	for _, ch := range a.Challenges {
		if ch.Type == typ {
			return ch
		}
	}
	return nil
}

// Engine ACME 协议操作
type Engine interface {
	// CreateAccount 注册账号并同意服务条款
	CreateAccount(ctx context.Context, email string) error

	// CreateOrder 为标识列表创建订单
	CreateOrder(ctx context.Context, identifiers []domain.Identifier) (*Order, error)

	// Authorizations 获取订单下的全部授权
	Authorizations(ctx context.Context, order *Order) ([]*Authorization, error)

	// KeyAuthorization 计算 DNS-01 挑战的 TXT 记录值
	KeyAuthorization(ch *Challenge) (string, error)

	// VerifyChallenge 在通知 CA 之前检查 TXT 记录是否可见
	VerifyChallenge(ctx context.Context, authz *Authorization, fqdn, value string) error

	// CompleteChallenge 通知 CA 开始验证
	CompleteChallenge(ctx context.Context, ch *Challenge) error

	// WaitForValid 轮询授权直到 valid，invalid 时返回错误
	WaitForValid(ctx context.Context, authz *Authorization) error

	// FinalizeOrder 提交 CSR
	FinalizeOrder(ctx context.Context, order *Order, csr []byte) error

	// Certificate 下载 PEM 证书链
	Certificate(ctx context.Context, order *Order) ([]byte, error)
}
