package domain

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

const (
	// ChallengeLabel DNS-01 验证记录前缀
	ChallengeLabel = "_acme-challenge"

	// Wildcard 通配符子域名
	Wildcard = "*"

	// IdentifierDNS ACME 标识类型
	IdentifierDNS = "dns"
)

// ErrEmptyDomain 主域名为空
var ErrEmptyDomain = errors.New("域名不能为空")

// Identifier ACME 订单中的一个域名标识
type Identifier struct {
	Type  string
	Value string
}

// Plan 一次签发需要验证的标识和共用的 TXT 记录集
type Plan struct {
	Zone          string // 主域名，即 DNS 区域
	Identifiers   []Identifier
	RecordSetName string   // 相对于区域（主域名）的记录集名称
	CommonName    string   // 证书 CN
	SANs          []string // CN 之外的备用域名
}

// Names 返回所有标识的域名
func (p *Plan) Names() []string {
	return lo.Map(p.Identifiers, func(id Identifier, _ int) string {
		return id.Value
	})
}

// NewPlan 根据主域名和子域名计算标识列表和记录集名称
//
//	""      -> [domain]              _acme-challenge
//	"label" -> [label.domain]        _acme-challenge.label
//	"*"     -> [*.domain, domain]    _acme-challenge
//
// 通配符和根域名的验证记录都落在 _acme-challenge.domain，共用同一个记录集。
func NewPlan(domain, subDomain string) (*Plan, error) {
	domain = normalize(domain)
	subDomain = normalize(subDomain)
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	plan := &Plan{Zone: domain, RecordSetName: ChallengeLabel}

	switch subDomain {
	case "":
		plan.CommonName = domain
		plan.Identifiers = dnsIdentifiers(domain)
	case Wildcard:
		plan.CommonName = Wildcard + "." + domain
		plan.SANs = []string{domain}
		plan.Identifiers = dnsIdentifiers(plan.CommonName, domain)
	default:
		plan.CommonName = subDomain + "." + domain
		plan.RecordSetName += "." + subDomain
		plan.Identifiers = dnsIdentifiers(plan.CommonName)
	}

	return plan, nil
}

func dnsIdentifiers(names ...string) []Identifier {
	return lo.Map(names, func(name string, _ int) Identifier {
		return Identifier{Type: IdentifierDNS, Value: name}
	})
}

func normalize(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}
