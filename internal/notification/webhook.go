package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"

	"ssl-certgen/internal/config"
	"ssl-certgen/internal/logging"
)

// EventType 事件类型
type EventType string

const (
	EventCertIssued EventType = "cert_issued" // 证书签发成功
	EventCertFailed EventType = "cert_failed" // 证书签发失败
)

// EventData 事件数据
type EventData struct {
	Event     string         `json:"event"`          // 事件类型
	Domain    string         `json:"domain"`         // 域名
	RunID     string         `json:"run_id"`         // 本次运行标识
	Timestamp string         `json:"timestamp"`      // 时间戳
	Message   string         `json:"message"`        // 消息
	Data      map[string]any `json:"data,omitempty"` // 额外数据
}

// WebhookNotifier Webhook 通知器
type WebhookNotifier struct {
	config          *config.WebhookConfig
	client          *http.Client
	initialInterval time.Duration
	logger          *slog.Logger
}

// NewWebhookNotifier 创建 Webhook 通知器，未启用时返回 nil
func NewWebhookNotifier(cfg *config.WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &WebhookNotifier{
		config:          cfg,
		client:          &http.Client{Timeout: timeout},
		initialInterval: time.Second,
		logger:          logging.Or(logger).With("component", "webhook"),
	}
}

// ShouldNotify 检查是否应该发送该事件的通知
func (w *WebhookNotifier) ShouldNotify(eventType EventType) bool {
	if !w.IsEnabled() {
		return false
	}

	// 如果没有配置事件列表，则发送所有事件
	if len(w.config.Events) == 0 {
		return true
	}
	return lo.Contains(w.config.Events, string(eventType))
}

// Notify 发送通知，失败时按指数退避重试
func (w *WebhookNotifier) Notify(ctx context.Context, eventType EventType, domain, runID, message string, data map[string]any) error {
	if !w.ShouldNotify(eventType) {
		return nil
	}

	eventData := EventData{
		Event:     string(eventType),
		Domain:    domain,
		RunID:     runID,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   message,
		Data:      data,
	}

	body, err := w.buildBody(eventData)
	if err != nil {
		return err
	}

	retries := w.config.Retries
	if retries <= 0 {
		retries = 3
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = w.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries-1)), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		return w.send(ctx, body)
	}, policy)
	if err != nil {
		w.logger.Warn("Webhook 通知发送失败", "attempts", attempt, "error", err)
		return err
	}

	w.logger.Info("Webhook 通知发送成功", "url", w.config.URL, "event", eventType, "domain", domain)
	return nil
}

func (w *WebhookNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("创建请求失败: %w", err))
	}

	// 设置请求头
	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhook 返回错误状态码: %d", resp.StatusCode)
	}
	return nil
}

// buildBody 使用自定义模板或默认 JSON 生成请求体
func (w *WebhookNotifier) buildBody(data EventData) ([]byte, error) {
	if w.config.BodyTemplate != "" {
		body, err := w.renderTemplate(w.config.BodyTemplate, data)
		if err == nil {
			return body, nil
		}
		// 模板渲染失败，使用默认 JSON 格式
		w.logger.Warn("渲染 Webhook 请求体模板失败", "error", err)
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("序列化事件数据失败: %w", err)
	}
	return body, nil
}

// renderTemplate 渲染模板
func (w *WebhookNotifier) renderTemplate(tmplStr string, data EventData) ([]byte, error) {
	tmplData := map[string]any{
		"Event":     data.Event,
		"Domain":    data.Domain,
		"RunID":     data.RunID,
		"Timestamp": data.Timestamp,
		"Message":   data.Message,
		"Data":      data.Data,
	}

	funcMap := template.FuncMap{
		"toJson": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	}

	tmpl, err := template.New("webhook").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tmplData); err != nil {
		return nil, fmt.Errorf("渲染模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

// NotifyCertIssued 通知证书签发成功
func (w *WebhookNotifier) NotifyCertIssued(ctx context.Context, domain, runID string, expiry time.Time, certID string) error {
	message := fmt.Sprintf("证书签发成功: %s", domain)
	data := map[string]any{
		"expires_at": expiry.Format(time.RFC3339),
	}
	if certID != "" {
		data["cert_id"] = certID
	}
	return w.Notify(ctx, EventCertIssued, domain, runID, message, data)
}

// NotifyCertFailed 通知证书签发失败
func (w *WebhookNotifier) NotifyCertFailed(ctx context.Context, domain, runID, reason string) error {
	message := fmt.Sprintf("证书签发失败: %s", domain)
	data := map[string]any{
		"reason": reason,
	}
	return w.Notify(ctx, EventCertFailed, domain, runID, message, data)
}

// IsEnabled 检查是否启用
func (w *WebhookNotifier) IsEnabled() bool {
	return w != nil && w.config != nil && w.config.Enabled
}
