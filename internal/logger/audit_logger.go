// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for model lifecycle and
// alert events.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogModelActivation logs a model activation, including which versions were
// deprecated as part of the transaction.
func (al *AuditLogger) LogModelActivation(version string, deprecated []string, activatedAt time.Time) {
	al.WithFields(logrus.Fields{
		"version":      version,
		"deprecated":   deprecated,
		"activated_at": activatedAt.Unix(),
	}).Info("Model version activated")
}

// LogModelStatusChange logs a model lifecycle transition.
func (al *AuditLogger) LogModelStatusChange(version, oldStatus, newStatus string) {
	al.WithFields(logrus.Fields{
		"version":    version,
		"old_status": oldStatus,
		"new_status": newStatus,
	}).Info("Model status changed")
}

// LogAlertRaised logs a raised alert.
func (al *AuditLogger) LogAlertRaised(alertID, severity, alertType, title string) {
	al.WithFields(logrus.Fields{
		"alert_id": alertID,
		"severity": severity,
		"type":     alertType,
		"title":    title,
	}).Info("Alert raised")
}

// LogAlertAcknowledged logs an alert acknowledgment.
func (al *AuditLogger) LogAlertAcknowledged(alertID, userID string, acknowledgedAt time.Time) {
	al.WithFields(logrus.Fields{
		"alert_id":        alertID,
		"acknowledged_by": userID,
		"acknowledged_at": acknowledgedAt.Unix(),
	}).Info("Alert acknowledged")
}

// LogDriftVerdict logs the outcome of a drift evaluation.
func (al *AuditLogger) LogDriftVerdict(version string, overallPSI float64, drifted bool, driftedFeatures []string) {
	entry := al.WithFields(logrus.Fields{
		"version":          version,
		"overall_psi":      overallPSI,
		"is_drifted":       drifted,
		"drifted_features": driftedFeatures,
	})
	if drifted {
		entry.Warn("Drift verdict recorded")
		return
	}
	entry.Info("Drift verdict recorded")
}
