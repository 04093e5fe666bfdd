package acme

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/samber/lo"
)

// ErrNotPropagated 解析器尚未返回期望的 TXT 记录
var ErrNotPropagated = errors.New("TXT记录尚未生效")

const defaultCheckTimeout = 10 * time.Second

// Checker 通过指定的解析器查询 TXT 记录
type Checker struct {
	resolvers []string
	client    *dns.Client
}

// NewChecker 创建检查器，resolver 缺省端口时补 53
func NewChecker(resolvers []string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	addrs := make([]string, 0, len(resolvers))
	for _, r := range resolvers {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(r); err != nil {
			r = net.JoinHostPort(r, "53")
		}
		addrs = append(addrs, r)
	}
	return &Checker{
		resolvers: addrs,
		client:    &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// Resolvers 返回规范化后的解析器地址
func (c *Checker) Resolvers() []string {
	return c.resolvers
}

// Check 每个解析器都能查到 value 时返回 nil
func (c *Checker) Check(ctx context.Context, fqdn, value string) error {
	for _, resolver := range c.resolvers {
		values, err := c.Lookup(ctx, resolver, fqdn)
		if err != nil {
			return err
		}
		if !lo.Contains(values, value) {
			return fmt.Errorf("%w: %s @%s", ErrNotPropagated, fqdn, resolver)
		}
	}
	return nil
}

// Lookup 查询 fqdn 的全部 TXT 值
func (c *Checker) Lookup(ctx context.Context, resolver, fqdn string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	m.RecursionDesired = true

	in, _, err := c.client.ExchangeContext(ctx, m, resolver)
	if err != nil {
		return nil, fmt.Errorf("查询 %s @%s 失败: %w", fqdn, resolver, err)
	}
	if in.Rcode != dns.RcodeSuccess && in.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("查询 %s @%s 失败: %s", fqdn, resolver, dns.RcodeToString[in.Rcode])
	}

	var values []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	return values, nil
}
