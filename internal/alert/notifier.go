package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/sharp-edge/internal/models"
)

// WebhookConfig holds configuration for the webhook notifier
type WebhookConfig struct {
	URL           string
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
}

// WebhookNotifier posts raised alerts to a configured webhook as JSON. The
// rate limiter caps delivery during alert storms; the retrying client absorbs
// transient upstream failures.
type WebhookNotifier struct {
	url     string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(cfg WebhookConfig, log *logrus.Logger) *WebhookNotifier {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	return &WebhookNotifier{
		url:     cfg.URL,
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  log,
	}
}

// Notify delivers an alert to the webhook endpoint
func (n *WebhookNotifier) Notify(ctx context.Context, alert *models.Alert) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"severity": alert.Severity,
	}).Debug("Alert delivered to webhook")

	return nil
}
