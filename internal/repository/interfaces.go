package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/sharp-edge/internal/models"
)

// ModelVersionRepository defines the interface for model version data access
type ModelVersionRepository interface {
	Create(ctx context.Context, version *models.ModelVersion) error
	GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error)
	GetActive(ctx context.Context) (*models.ModelVersion, error)
	GetHistory(ctx context.Context, limit int) ([]*models.ModelVersion, error)
	UpdateStatus(ctx context.Context, version string, status models.ModelStatus) error
	UpdateMetrics(ctx context.Context, version string, metrics []byte) error
	Activate(ctx context.Context, version string) (*models.ModelVersion, error)
}

// DriftMetricRepository defines the interface for drift metric data access.
// Metric rows are append-only; there is no update operation.
type DriftMetricRepository interface {
	Insert(ctx context.Context, metric *models.DriftMetric) error
	InsertBatch(ctx context.Context, metrics []*models.DriftMetric) error
	GetRecentByModelVersion(ctx context.Context, version string, limit int) ([]*models.DriftMetric, error)
}

// AlertRepository defines the interface for alert data access
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Alert, error)
	GetUnacknowledged(ctx context.Context) ([]*models.Alert, error)
	GetBySeverity(ctx context.Context, severity models.AlertSeverity, limit int) ([]*models.Alert, error)
	GetByType(ctx context.Context, alertType string, limit int) ([]*models.Alert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, userID string, at time.Time) (*models.Alert, bool, error)
	CountUnacknowledgedBySeverity(ctx context.Context, severity models.AlertSeverity, since time.Time) (int, error)
}

// PredictionRepository defines the interface for prediction snapshot data access
type PredictionRepository interface {
	Insert(ctx context.Context, prediction *models.Prediction) error
	GetByGameID(ctx context.Context, gameID uuid.UUID) ([]*models.Prediction, error)
	GetRecentByModelVersion(ctx context.Context, version string, limit int) ([]*models.Prediction, error)
}
