package core

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ssl-certgen/internal/acme"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/provider"
	"ssl-certgen/internal/runner"
)

var errBoom = errors.New("boom")

// fakePublisher 内存中的记录集
type fakePublisher struct {
	calls   []provider.RecordRequest
	fail    map[provider.RecordOp]error
	records map[string][]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		fail:    make(map[provider.RecordOp]error),
		records: make(map[string][]string),
	}
}

func (f *fakePublisher) Name() string { return "fake" }

func (f *fakePublisher) Apply(_ context.Context, req provider.RecordRequest) error {
	f.calls = append(f.calls, req)
	if err := f.fail[req.Op]; err != nil {
		return err
	}

	key := domain.FQDN(req.Name, req.Zone)
	switch req.Op {
	case provider.OpCreate:
		if _, ok := f.records[key]; !ok {
			f.records[key] = []string{}
		}
	case provider.OpAdd:
		f.records[key] = provider.AppendValue(f.records[key], req.Value)
	case provider.OpRemove:
		f.records[key] = provider.RemoveValue(f.records[key], req.Value)
	case provider.OpDelete:
		delete(f.records, key)
	}
	return nil
}

func (f *fakePublisher) ops() []provider.RecordOp {
	ops := make([]provider.RecordOp, 0, len(f.calls))
	for _, c := range f.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

func (f *fakePublisher) count(op provider.RecordOp) int {
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// stubEngine 按预设授权应答的 ACME 引擎
type stubEngine struct {
	authzs    []*acme.Authorization
	chain     []byte
	verifyErr error
	waitErr   error

	calls    []string
	verified []string // VerifyChallenge 收到的 fqdn
	csr      []byte
	email    string
	ids      []domain.Identifier

	// 验证时记录集中的值
	publisher *fakePublisher
	seen      [][]string
}

func (s *stubEngine) CreateAccount(_ context.Context, email string) error {
	s.calls = append(s.calls, "account")
	s.email = email
	return nil
}

func (s *stubEngine) CreateOrder(_ context.Context, ids []domain.Identifier) (*acme.Order, error) {
	s.calls = append(s.calls, "order")
	s.ids = ids
	return &acme.Order{URI: "https://acme.test/order/1", Identifiers: ids}, nil
}

func (s *stubEngine) Authorizations(context.Context, *acme.Order) ([]*acme.Authorization, error) {
	s.calls = append(s.calls, "authorizations")
	return s.authzs, nil
}

func (s *stubEngine) KeyAuthorization(ch *acme.Challenge) (string, error) {
	return "ka-" + ch.Token, nil
}

func (s *stubEngine) VerifyChallenge(_ context.Context, _ *acme.Authorization, fqdn, _ string) error {
	s.calls = append(s.calls, "verify")
	s.verified = append(s.verified, fqdn)
	if s.publisher != nil {
		s.seen = append(s.seen, append([]string(nil), s.publisher.records[fqdn]...))
	}
	return s.verifyErr
}

func (s *stubEngine) CompleteChallenge(context.Context, *acme.Challenge) error {
	s.calls = append(s.calls, "complete")
	return nil
}

func (s *stubEngine) WaitForValid(_ context.Context, authz *acme.Authorization) error {
	s.calls = append(s.calls, "wait")
	if s.waitErr != nil {
		return s.waitErr
	}
	authz.Status = acme.StatusValid
	return nil
}

func (s *stubEngine) FinalizeOrder(_ context.Context, _ *acme.Order, csr []byte) error {
	s.calls = append(s.calls, "finalize")
	s.csr = csr
	return nil
}

func (s *stubEngine) Certificate(context.Context, *acme.Order) ([]byte, error) {
	s.calls = append(s.calls, "certificate")
	return s.chain, nil
}

func pendingAuthz(name, token string) *acme.Authorization {
	return &acme.Authorization{
		URI:        "https://acme.test/authz/" + token,
		Status:     acme.StatusPending,
		Identifier: domain.Identifier{Type: domain.IdentifierDNS, Value: name},
		Challenges: []*acme.Challenge{
			{Type: "http-01", Token: "http-" + token},
			{Type: acme.ChallengeDNS01, Token: token, URI: "https://acme.test/chall/" + token},
		},
	}
}

// fakeRunner 记录命令，不执行
type fakeRunner struct {
	cmds []runner.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.cmds = append(f.cmds, cmd)
	return runner.Result{Success: true}
}

func selfSigned(t *testing.T, notAfter time.Time, cn string, names ...string) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     append([]string{cn}, names...),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func timeIn(hours int) time.Time {
	return time.Now().Add(time.Duration(hours) * time.Hour)
}
