package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mautops/practica-gin/internal/config"
)

// WebhookNotifier 以 JSON POST 的方式把通知转发给外部邮件网关
type WebhookNotifier struct {
	url        string
	token      string
	headers    map[string]string
	httpClient *http.Client
}

// NewWebhookNotifier 创建 Webhook 发送器
func NewWebhookNotifier(cfg config.WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("notify.webhook.url is required")
	}
	return &WebhookNotifier{
		url:        cfg.URL,
		token:      cfg.Token,
		headers:    cfg.Headers,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (n *WebhookNotifier) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status code: %d", resp.StatusCode)
	}
	return nil
}
