package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/provider"
	"ssl-certgen/internal/runner"
)

type fakeRunner struct {
	calls  []runner.Command
	result runner.Result
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.calls = append(f.calls, cmd)
	return f.result
}

func newProvider(t *testing.T, r runner.Runner) *DNSProvider {
	t.Helper()
	p, err := NewDNSProvider(&config.AzureConfig{SubscriptionID: "sub", ResourceGroup: "rg"}, r, nil)
	require.NoError(t, err)
	return p
}

func TestDNSProvider_Commands(t *testing.T) {
	common := []string{"--subscription", "sub", "--resource-group", "rg", "--zone-name", "example.com"}

	tests := []struct {
		name string
		req  provider.RecordRequest
		want []string
	}{
		{
			name: "create",
			req:  provider.RecordRequest{Op: provider.OpCreate, Zone: "example.com", Name: "_acme-challenge", TTL: 20},
			want: append(append([]string{"network", "dns", "record-set", "txt", "create"}, common...),
				"--name", "_acme-challenge", "--ttl", "20"),
		},
		{
			name: "add",
			req:  provider.RecordRequest{Op: provider.OpAdd, Zone: "example.com", Name: "_acme-challenge", Value: "v1"},
			want: append(append([]string{"network", "dns", "record-set", "txt", "add-record"}, common...),
				"--record-set-name", "_acme-challenge", "--value", "v1"),
		},
		{
			name: "remove",
			req:  provider.RecordRequest{Op: provider.OpRemove, Zone: "example.com", Name: "_acme-challenge", Value: "v1"},
			want: append(append([]string{"network", "dns", "record-set", "txt", "remove-record"}, common...),
				"--record-set-name", "_acme-challenge", "--value", "v1", "--keep-empty-record-set"),
		},
		{
			name: "delete",
			req:  provider.RecordRequest{Op: provider.OpDelete, Zone: "example.com", Name: "_acme-challenge"},
			want: append(append([]string{"network", "dns", "record-set", "txt", "delete"}, common...),
				"--name", "_acme-challenge", "--yes"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{result: runner.Result{Success: true}}
			p := newProvider(t, r)

			require.NoError(t, p.Apply(context.Background(), tt.req))
			require.Len(t, r.calls, 1)
			assert.Equal(t, "az", r.calls[0].Name)
			assert.Equal(t, tt.want, r.calls[0].Args)
		})
	}
}

func TestDNSProvider_Failure(t *testing.T) {
	r := &fakeRunner{result: runner.Result{ExitCode: 1, ErrorMessage: "exit status 1", Stderr: "zone not found"}}
	p := newProvider(t, r)

	err := p.Apply(context.Background(), provider.RecordRequest{Op: provider.OpAdd, Zone: "example.com", Name: "_acme-challenge", Value: "v"})
	var cmdErr *runner.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.Result.ExitCode)
	assert.Contains(t, err.Error(), "zone not found")
}

func TestDNSProvider_UnknownOp(t *testing.T) {
	r := &fakeRunner{result: runner.Result{Success: true}}
	p := newProvider(t, r)

	assert.Error(t, p.Apply(context.Background(), provider.RecordRequest{Op: provider.RecordOp(42)}))
	assert.Empty(t, r.calls)
}

func TestNewDNSProvider_RequiresResourceGroup(t *testing.T) {
	_, err := NewDNSProvider(&config.AzureConfig{}, &fakeRunner{}, nil)
	assert.Error(t, err)
}
