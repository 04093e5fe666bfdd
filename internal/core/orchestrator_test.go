package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssl-certgen/internal/acme"
	"ssl-certgen/internal/domain"
	"ssl-certgen/internal/provider"
)

func newTestOrchestrator(engine acme.Engine, pub provider.DNSPublisher) *Orchestrator {
	return NewOrchestrator(engine, pub, WithPropagationDelay(time.Millisecond))
}

func mustPlan(t *testing.T, sub string) *domain.Plan {
	t.Helper()
	plan, err := domain.NewPlan("example.com", sub)
	require.NoError(t, err)
	return plan
}

func TestOrchestrator_Solve(t *testing.T) {
	pub := newFakePublisher()
	engine := &stubEngine{publisher: pub}
	authzs := []*acme.Authorization{pendingAuthz("example.com", "t1")}

	err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, ""), authzs)
	require.NoError(t, err)

	assert.Equal(t, []provider.RecordOp{
		provider.OpCreate, provider.OpAdd, provider.OpRemove, provider.OpDelete,
	}, pub.ops())

	add := pub.calls[1]
	assert.Equal(t, "example.com", add.Zone)
	assert.Equal(t, "_acme-challenge", add.Name)
	assert.Equal(t, "ka-t1", add.Value)
	assert.Equal(t, 20, add.TTL)

	assert.Equal(t, []string{"_acme-challenge.example.com"}, engine.verified)
	assert.Equal(t, [][]string{{"ka-t1"}}, engine.seen)
	assert.Equal(t, []string{"verify", "complete", "wait"}, engine.calls)
	assert.Empty(t, pub.records)
}

func TestOrchestrator_WildcardSharesRecordSet(t *testing.T) {
	pub := newFakePublisher()
	engine := &stubEngine{publisher: pub}
	authzs := []*acme.Authorization{
		pendingAuthz("example.com", "wild"),
		pendingAuthz("example.com", "root"),
	}
	authzs[0].Wildcard = true

	err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, "*"), authzs)
	require.NoError(t, err)

	assert.Equal(t, 1, pub.count(provider.OpCreate))
	assert.Equal(t, 2, pub.count(provider.OpAdd))
	assert.Equal(t, 2, pub.count(provider.OpRemove))
	assert.Equal(t, 1, pub.count(provider.OpDelete))
	for _, c := range pub.calls {
		assert.Equal(t, "_acme-challenge", c.Name)
	}
	assert.Equal(t, [][]string{{"ka-wild"}, {"ka-root"}}, engine.seen)
}

func TestOrchestrator_SkipsValidAuthorization(t *testing.T) {
	pub := newFakePublisher()
	engine := &stubEngine{}
	authz := pendingAuthz("example.com", "t1")
	authz.Status = acme.StatusValid

	err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, ""), []*acme.Authorization{authz})
	require.NoError(t, err)
	assert.Equal(t, []provider.RecordOp{provider.OpCreate, provider.OpDelete}, pub.ops())
	assert.Empty(t, engine.calls)
}

func TestOrchestrator_NoDNSChallenge(t *testing.T) {
	pub := newFakePublisher()
	authz := pendingAuthz("example.com", "t1")
	authz.Challenges = authz.Challenges[:1]

	err := newTestOrchestrator(&stubEngine{}, pub).Solve(context.Background(), mustPlan(t, ""), []*acme.Authorization{authz})
	assert.ErrorIs(t, err, ErrNoDNSChallenge)
	assert.Equal(t, 0, pub.count(provider.OpAdd))
	assert.Equal(t, 1, pub.count(provider.OpDelete))
}

func TestOrchestrator_CreateFailure(t *testing.T) {
	pub := newFakePublisher()
	pub.fail[provider.OpCreate] = errBoom
	engine := &stubEngine{}

	err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, ""),
		[]*acme.Authorization{pendingAuthz("example.com", "t1")})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []provider.RecordOp{provider.OpCreate}, pub.ops())
	assert.Empty(t, engine.calls)
}

func TestOrchestrator_PublishFailure(t *testing.T) {
	pub := newFakePublisher()
	pub.fail[provider.OpAdd] = errBoom
	engine := &stubEngine{}

	err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, ""),
		[]*acme.Authorization{pendingAuthz("example.com", "t1")})
	assert.ErrorIs(t, err, errBoom)

	assert.NotContains(t, engine.calls, "verify")
	assert.NotContains(t, engine.calls, "complete")
	assert.Equal(t, 0, pub.count(provider.OpRemove))
	assert.Equal(t, 1, pub.count(provider.OpDelete))
}

func TestOrchestrator_VerificationFailure(t *testing.T) {
	for name, engine := range map[string]*stubEngine{
		"precheck":  {verifyErr: errBoom},
		"authorize": {waitErr: errBoom},
	} {
		t.Run(name, func(t *testing.T) {
			pub := newFakePublisher()
			err := newTestOrchestrator(engine, pub).Solve(context.Background(), mustPlan(t, "www"),
				[]*acme.Authorization{
					pendingAuthz("www.example.com", "t1"),
					pendingAuthz("www.example.com", "t2"),
				})
			assert.ErrorIs(t, err, errBoom)
			assert.Equal(t, 1, pub.count(provider.OpAdd))
			assert.Equal(t, 1, pub.count(provider.OpRemove))
			assert.Equal(t, "_acme-challenge.www", pub.calls[len(pub.calls)-2].Name)
			assert.Equal(t, provider.OpDelete, pub.calls[len(pub.calls)-1].Op)
		})
	}
}

func TestOrchestrator_CleanupFailuresAreWarnings(t *testing.T) {
	pub := newFakePublisher()
	pub.fail[provider.OpRemove] = errBoom
	pub.fail[provider.OpDelete] = errBoom

	err := newTestOrchestrator(&stubEngine{}, pub).Solve(context.Background(), mustPlan(t, ""),
		[]*acme.Authorization{pendingAuthz("example.com", "t1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"ka-t1"}, pub.records["_acme-challenge.example.com"])
}

func TestOrchestrator_StaleValueDoesNotBlockNextRun(t *testing.T) {
	pub := newFakePublisher()
	pub.fail[provider.OpRemove] = errBoom
	pub.fail[provider.OpDelete] = errBoom

	first := &stubEngine{verifyErr: errBoom}
	err := newTestOrchestrator(first, pub).Solve(context.Background(), mustPlan(t, ""),
		[]*acme.Authorization{pendingAuthz("example.com", "t1")})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, []string{"ka-t1"}, pub.records["_acme-challenge.example.com"])

	delete(pub.fail, provider.OpRemove)
	delete(pub.fail, provider.OpDelete)

	for _, token := range []string{"t1", "t2"} {
		second := &stubEngine{publisher: pub}
		err = newTestOrchestrator(second, pub).Solve(context.Background(), mustPlan(t, ""),
			[]*acme.Authorization{pendingAuthz("example.com", token)})
		require.NoError(t, err)
		assert.Contains(t, second.seen[0], "ka-"+token)
		assert.NotContains(t, pub.records, "_acme-challenge.example.com")

		// 下一轮重新制造残留
		pub.records["_acme-challenge.example.com"] = []string{"ka-t1"}
	}
}

func TestOrchestrator_CleanupIgnoresCancellation(t *testing.T) {
	pub := newFakePublisher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(&stubEngine{}, pub, WithPropagationDelay(time.Hour))
	err := o.Solve(ctx, mustPlan(t, ""), []*acme.Authorization{pendingAuthz("example.com", "t1")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []provider.RecordOp{
		provider.OpCreate, provider.OpAdd, provider.OpRemove, provider.OpDelete,
	}, pub.ops())
}
