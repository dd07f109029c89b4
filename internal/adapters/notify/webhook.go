// Package notify posts run summaries to a messaging webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

// WebhookURLEnv is the environment variable holding the webhook endpoint.
const WebhookURLEnv = "RELAY_WEBHOOK_URL"

const defaultTimeout = 10 * time.Second

var _ ports.Notifier = (*Webhook)(nil)

// Webhook implements ports.Notifier with a single best-effort JSON POST.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a notifier posting to the given URL. An empty URL
// disables posting; Notify becomes a no-op.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// payload is the fixed-format message body.
type payload struct {
	Pipeline   string   `json:"pipeline"`
	RunID      string   `json:"run_id"`
	Event      string   `json:"event"`
	Ref        string   `json:"ref,omitzero"`
	Conclusion string   `json:"conclusion"`
	FailedJobs []string `json:"failed_jobs,omitzero"`
	Text       string   `json:"text"`
}

// Notify posts the summary. One attempt, no retries.
func (w *Webhook) Notify(ctx context.Context, summary *domain.RunSummary) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		Pipeline:   summary.Pipeline,
		RunID:      summary.RunID,
		Event:      string(summary.Event),
		Ref:        summary.Ref,
		Conclusion: string(summary.Conclusion),
		FailedJobs: summary.FailedJobs,
		Text:       summaryText(summary),
	})
	if err != nil {
		return zerr.Wrap(err, "failed to marshal notification payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return zerr.Wrap(err, "failed to build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return zerr.Wrap(err, "failed to post notification")
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode >= 300 {
		return zerr.With(zerr.New("notification endpoint rejected payload"), "status", resp.StatusCode)
	}
	return nil
}

func summaryText(summary *domain.RunSummary) string {
	return fmt.Sprintf("%s run %s concluded %s after %s",
		summary.Pipeline, summary.RunID, summary.Conclusion, summary.Duration.Round(time.Second))
}
