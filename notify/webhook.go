package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
)

// WebhookConfig configures a Webhook.
type WebhookConfig struct {
	URL     string
	Headers map[string]string

	// Timeout bounds a single request. Default: 10 seconds
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client
}

// Webhook posts alerts as JSON Events.
type Webhook struct {
	config WebhookConfig
	client *http.Client
	now    func() time.Time
}

// NewWebhook creates a webhook channel.
func NewWebhook(config WebhookConfig) *Webhook {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &Webhook{config: config, client: client, now: time.Now}
}

// Send posts a.
func (w *Webhook) Send(ctx context.Context, a alert.Alert) error {
	body, err := json.Marshal(NewEvent(a, w.now()))
	if err != nil {
		return fmt.Errorf("notify: webhook encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
