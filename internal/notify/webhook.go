package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwdgo/fwd-nagaoka/internal/config"
)

// StatusError is a non-2xx response from the webhook endpoint.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d - status: %s", e.Code, e.Status)
}

// Webhook posts rendered notifications to a Discord-compatible endpoint.
type Webhook struct {
	client *http.Client
	url    string
}

func NewWebhook(cfg config.WebhookConfig) *Webhook {
	return &Webhook{
		client: &http.Client{
			Timeout: cfg.PostTimeout,
		},
		url: cfg.URL,
	}
}

func (w *Webhook) Post(ctx context.Context, message string) error {
	if w.url == "" {
		return fmt.Errorf("webhook URL is not configured")
	}

	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("error encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
