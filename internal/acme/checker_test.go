package acme

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNS 启动只应答 TXT 的本地 DNS 服务
func startDNS(t *testing.T, records map[string][]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			q := r.Question[0]
			values, ok := records[q.Name]
			if !ok {
				m.Rcode = dns.RcodeNameError
			}
			for _, v := range values {
				m.Answer = append(m.Answer, &dns.TXT{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 20},
					Txt: []string{v},
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = server.ActivateAndServe() }()
	t.Cleanup(func() { _ = server.Shutdown() })

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestNewChecker_DefaultPort(t *testing.T) {
	c := NewChecker([]string{"8.8.8.8", " 1.1.1.1:5353 ", ""}, 0)
	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:5353"}, c.Resolvers())
}

func TestChecker_Check(t *testing.T) {
	addr := startDNS(t, map[string][]string{
		"_acme-challenge.example.com.": {"token-a", "token-b"},
	})
	c := NewChecker([]string{addr}, 2*time.Second)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		require.NoError(t, c.Check(ctx, "_acme-challenge.example.com", "token-b"))
	})

	t.Run("missing value", func(t *testing.T) {
		err := c.Check(ctx, "_acme-challenge.example.com", "token-c")
		assert.ErrorIs(t, err, ErrNotPropagated)
	})

	t.Run("nxdomain", func(t *testing.T) {
		err := c.Check(ctx, "_acme-challenge.other.com", "token-a")
		assert.ErrorIs(t, err, ErrNotPropagated)
	})
}

func TestClient_VerifyChallengeWithoutChecker(t *testing.T) {
	key, err := NewAccountKey()
	require.NoError(t, err)

	c := NewClient("https://acme.invalid/directory", key)
	err = c.VerifyChallenge(context.Background(), &Authorization{}, "_acme-challenge.example.com", "v")
	assert.NoError(t, err)
}
