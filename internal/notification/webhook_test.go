package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssl-certgen/internal/config"
)

func newNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	w := NewWebhookNotifier(cfg, nil)
	w.initialInterval = time.Millisecond
	return w
}

func TestNewWebhookNotifier_Disabled(t *testing.T) {
	assert.Nil(t, NewWebhookNotifier(nil, nil))
	w := NewWebhookNotifier(&config.WebhookConfig{Enabled: false, URL: "http://x"}, nil)
	assert.Nil(t, w)
	assert.False(t, w.IsEnabled())
	assert.NoError(t, w.NotifyCertFailed(context.Background(), "example.com", "run", "boom"))
}

func TestWebhookNotifier_ShouldNotify(t *testing.T) {
	w := newNotifier(&config.WebhookConfig{Enabled: true, URL: "http://x", Events: []string{"cert_failed"}})
	assert.True(t, w.ShouldNotify(EventCertFailed))
	assert.False(t, w.ShouldNotify(EventCertIssued))
}

func TestWebhookNotifier_NotifyCertIssued(t *testing.T) {
	var got EventData
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Token")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newNotifier(&config.WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Headers: map[string]string{"X-Token": "abc"},
	})

	expiry := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	err := w.NotifyCertIssued(context.Background(), "example.com", "run-1", expiry, "cert-9")
	require.NoError(t, err)

	assert.Equal(t, "abc", header)
	assert.Equal(t, "cert_issued", got.Event)
	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "cert-9", got.Data["cert_id"])
	assert.Equal(t, "2027-01-02T03:04:05Z", got.Data["expires_at"])
}

func TestWebhookNotifier_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			rw.WriteHeader(http.StatusBadGateway)
			return
		}
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := newNotifier(&config.WebhookConfig{Enabled: true, URL: srv.URL, Retries: 3})
	require.NoError(t, w.NotifyCertFailed(context.Background(), "example.com", "run", "boom"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := newNotifier(&config.WebhookConfig{Enabled: true, URL: srv.URL, Retries: 2})
	err := w.NotifyCertFailed(context.Background(), "example.com", "run", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhookNotifier_BodyTemplate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	w := newNotifier(&config.WebhookConfig{
		Enabled:      true,
		URL:          srv.URL,
		BodyTemplate: `{"text":"{{.Event}} {{.Domain}}","data":{{toJson .Data}}}`,
	})
	require.NoError(t, w.NotifyCertFailed(context.Background(), "example.com", "run", "boom"))
	assert.Equal(t, `{"text":"cert_failed example.com","data":{"reason":"boom"}}`, body)
}
