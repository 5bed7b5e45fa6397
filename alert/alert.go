package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lancerhub/webhook-guard/reconcile"
	"github.com/rs/zerolog"
)

/* Notifier implementations for the operator alert channel. The sweep only
 * depends on reconcile.Notifier; which sink is wired is a deployment choice.
 */

// WebhookNotifier POSTs alerts as JSON to a configured sink URL (Slack
// incoming webhook, PagerDuty events endpoint, an internal relay).
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewWebhookNotifier creates a notifier for the given sink URL
func NewWebhookNotifier(url string, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Notify delivers one alert to the sink
func (n *WebhookNotifier) Notify(ctx context.Context, alert reconcile.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert sink returned status %d", resp.StatusCode)
	}

	n.logger.Info().Str("subject", alert.Subject).Str("severity", alert.Severity).Msg("alert delivered")
	return nil
}

// LogNotifier writes alerts to the structured log. Used when no sink URL is
// configured so alerts are still visible somewhere.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify writes the alert to the log
func (n *LogNotifier) Notify(_ context.Context, alert reconcile.Alert) error {
	n.logger.Warn().
		Str("subject", alert.Subject).
		Str("severity", alert.Severity).
		Str("body", alert.Body).
		Msg("reconciliation alert")
	return nil
}
