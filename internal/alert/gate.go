// Package alert turns monitored conditions into persisted, severity-tagged
// alert records with idempotent acknowledgment semantics.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/drift"
	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/metrics"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/repository"
)

// Notifier delivers a raised alert to an external channel. Delivery is
// best-effort; failures never block alert persistence.
type Notifier interface {
	Notify(ctx context.Context, alert *models.Alert) error
}

// Gate raises and manages alerts. A drift verdict maps to severity by policy:
// no drift means no alert, drift raises warn, and a mean PSI above the crit
// threshold escalates to crit.
type Gate struct {
	repo             repository.AlertRepository
	notifier         Notifier
	critPSIThreshold float64
	logger           *logrus.Logger
	audit            *logger.AuditLogger
}

// NewGate creates a new alert gate. notifier may be nil when no external
// delivery channel is configured.
func NewGate(repo repository.AlertRepository, critPSIThreshold float64, notifier Notifier, log *logrus.Logger) *Gate {
	return &Gate{
		repo:             repo,
		notifier:         notifier,
		critPSIThreshold: critPSIThreshold,
		logger:           log,
		audit:            logger.NewAuditLogger(log),
	}
}

// RaiseFromVerdict applies the severity policy to a drift verdict. A clean
// verdict returns (nil, nil). Duplicate alerts for the same ongoing condition
// across scans are acceptable noise, not corruption; the gate does not attempt
// exactly-once alerting.
func (g *Gate) RaiseFromVerdict(ctx context.Context, verdict *drift.Verdict) (*models.Alert, error) {
	if verdict == nil || !verdict.IsDrifted {
		return nil, nil
	}

	severity := models.SeverityWarn
	if verdict.OverallPSI > g.critPSIThreshold {
		severity = models.SeverityCrit
	}

	psi := decimal.NewFromFloat(verdict.OverallPSI).Round(4).String()
	detail := fmt.Sprintf("mean PSI %s across %d features; drifted: %s",
		psi, verdict.FeatureCount, strings.Join(verdict.DriftedFeatures, ", "))
	version := verdict.ModelVersion

	a := &models.Alert{
		ID:           uuid.New(),
		Severity:     severity,
		Type:         models.AlertTypeModelDrift,
		Title:        fmt.Sprintf("Model %s prediction drift detected", version),
		Detail:       &detail,
		ModelVersion: &version,
	}

	if err := g.Raise(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// Raise persists a new alert and dispatches it to the notifier. A storage
// failure is reported to the caller; a notifier failure is logged and counted
// only.
func (g *Gate) Raise(ctx context.Context, alert *models.Alert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	if err := g.repo.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to raise alert: %w", err)
	}

	metrics.RecordAlertRaised(string(alert.Severity))
	g.audit.LogAlertRaised(alert.ID.String(), string(alert.Severity), alert.Type, alert.Title)

	if g.notifier != nil {
		if err := g.notifier.Notify(ctx, alert); err != nil {
			metrics.RecordWebhookFailure()
			g.logger.WithError(err).WithField("alert_id", alert.ID).Warn("Alert notification failed")
		}
	}

	return nil
}

// Acknowledge stamps an alert exactly once. Acknowledging an already
// acknowledged alert returns the existing record unchanged; an unknown alert
// is a not-found outcome. The counter and audit trail record only the call
// that actually stamped the row.
func (g *Gate) Acknowledge(ctx context.Context, alertID uuid.UUID, userID string) (*models.Alert, error) {
	a, stamped, err := g.repo.Acknowledge(ctx, alertID, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if stamped && a.AcknowledgedAt != nil && a.AcknowledgedBy != nil {
		metrics.RecordAlertAcknowledged()
		g.audit.LogAlertAcknowledged(a.ID.String(), *a.AcknowledgedBy, *a.AcknowledgedAt)
	}

	return a, nil
}

// Recent returns the most recent alerts, newest first
func (g *Gate) Recent(ctx context.Context, limit int) ([]*models.Alert, error) {
	return g.repo.GetRecent(ctx, limit)
}

// Unacknowledged returns all unacknowledged alerts
func (g *Gate) Unacknowledged(ctx context.Context) ([]*models.Alert, error) {
	return g.repo.GetUnacknowledged(ctx)
}

// BySeverity returns alerts of a given severity
func (g *Gate) BySeverity(ctx context.Context, severity models.AlertSeverity, limit int) ([]*models.Alert, error) {
	return g.repo.GetBySeverity(ctx, severity, limit)
}

// ByType returns alerts of a given type
func (g *Gate) ByType(ctx context.Context, alertType string, limit int) ([]*models.Alert, error) {
	return g.repo.GetByType(ctx, alertType, limit)
}

// UnackedCritCount returns the number of unacknowledged crit alerts raised in
// the last 24 hours and refreshes the dashboard gauge.
func (g *Gate) UnackedCritCount(ctx context.Context) (int, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	count, err := g.repo.CountUnacknowledgedBySeverity(ctx, models.SeverityCrit, since)
	if err != nil {
		return 0, err
	}

	metrics.UpdateUnacknowledgedCritAlerts(float64(count))
	return count, nil
}
