package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/models"
)

const driftMetricColumns = `
	id, model_version, metric_type, feature_name, value, threshold,
	is_drifted, window_start, window_end, created_at
`

// PostgresDriftMetricRepository implements DriftMetricRepository for PostgreSQL
type PostgresDriftMetricRepository struct {
	db *database.DB
}

// NewPostgresDriftMetricRepository creates a new drift metric repository
func NewPostgresDriftMetricRepository(db *database.DB) DriftMetricRepository {
	return &PostgresDriftMetricRepository{db: db}
}

// Insert appends a new drift metric observation
func (r *PostgresDriftMetricRepository) Insert(ctx context.Context, metric *models.DriftMetric) error {
	query := `
		INSERT INTO drift_metrics (id, model_version, metric_type, feature_name, value, threshold, is_drifted, window_start, window_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		metric.ID, metric.ModelVersion, metric.MetricType, metric.FeatureName,
		metric.Value, metric.Threshold, metric.IsDrifted, metric.WindowStart, metric.WindowEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert drift metric: %w", err)
	}

	return nil
}

// InsertBatch appends a batch of drift metric observations
func (r *PostgresDriftMetricRepository) InsertBatch(ctx context.Context, metrics []*models.DriftMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO drift_metrics (id, model_version, metric_type, feature_name, value, threshold, is_drifted, window_start, window_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, metric := range metrics {
		batch.Queue(query,
			metric.ID, metric.ModelVersion, metric.MetricType, metric.FeatureName,
			metric.Value, metric.Threshold, metric.IsDrifted, metric.WindowStart, metric.WindowEnd,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range metrics {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert drift metric batch: %w", err)
		}
	}

	return nil
}

// GetRecentByModelVersion retrieves the most recent metric rows for a model
// version, newest first. The limit bounds the drift evaluation window.
func (r *PostgresDriftMetricRepository) GetRecentByModelVersion(ctx context.Context, version string, limit int) ([]*models.DriftMetric, error) {
	query := `
		SELECT ` + driftMetricColumns + `
		FROM drift_metrics
		WHERE model_version = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, version, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query drift metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*models.DriftMetric
	for rows.Next() {
		metric := &models.DriftMetric{}
		err := rows.Scan(
			&metric.ID, &metric.ModelVersion, &metric.MetricType, &metric.FeatureName,
			&metric.Value, &metric.Threshold, &metric.IsDrifted,
			&metric.WindowStart, &metric.WindowEnd, &metric.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drift metric: %w", err)
		}
		metrics = append(metrics, metric)
	}

	return metrics, rows.Err()
}
