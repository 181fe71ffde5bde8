package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertSeverity classifies how urgent an alert is.
type AlertSeverity string

// Alert severities.
const (
	SeverityInfo AlertSeverity = "info"
	SeverityWarn AlertSeverity = "warn"
	SeverityCrit AlertSeverity = "crit"
)

// Alert types raised by the monitoring pipeline.
const (
	AlertTypeModelDrift      = "model_drift"
	AlertTypeModelActivation = "model_activation"
	AlertTypeSystem          = "system"
)

// Alert represents a persisted, severity-tagged alert record. Alerts are never
// deleted; acknowledgment stamps them exactly once.
type Alert struct {
	ID             uuid.UUID     `db:"id" json:"id" validate:"required,uuid4"`
	Severity       AlertSeverity `db:"severity" json:"severity" validate:"required,oneof=info warn crit"`
	Type           string        `db:"type" json:"type" validate:"required"`
	Title          string        `db:"title" json:"title" validate:"required"`
	Detail         *string       `db:"detail" json:"detail,omitempty"`
	ModelVersion   *string       `db:"model_version" json:"model_version,omitempty"`
	GameID         *uuid.UUID    `db:"game_id" json:"game_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	AcknowledgedAt *time.Time    `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string       `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
}

// IsAcknowledged checks if the alert has been acknowledged
func (a *Alert) IsAcknowledged() bool {
	return a.AcknowledgedAt != nil
}
