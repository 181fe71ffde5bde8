package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/models"
)

const modelVersionColumns = `
	id, version, model_type, status, hyperparameters, metrics,
	training_start, training_end, activated_at, created_at, updated_at
`

// PostgresModelVersionRepository implements ModelVersionRepository for PostgreSQL
type PostgresModelVersionRepository struct {
	db *database.DB
}

// NewPostgresModelVersionRepository creates a new model version repository
func NewPostgresModelVersionRepository(db *database.DB) ModelVersionRepository {
	return &PostgresModelVersionRepository{db: db}
}

// Create inserts a new model version in the training state
func (m *PostgresModelVersionRepository) Create(ctx context.Context, version *models.ModelVersion) error {
	query := `
		INSERT INTO model_versions (id, version, model_type, status, hyperparameters, metrics, training_start, training_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := m.db.GetPool().Exec(ctx, query,
		version.ID, version.Version, version.ModelType, version.Status,
		version.Hyperparameters, version.Metrics, version.TrainingStart, version.TrainingEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to create model version: %w", err)
	}

	return nil
}

// GetByVersion retrieves a model version by its version string
func (m *PostgresModelVersionRepository) GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error) {
	query := `SELECT ` + modelVersionColumns + ` FROM model_versions WHERE version = $1`

	mv := &models.ModelVersion{}
	err := m.db.GetPool().QueryRow(ctx, query, version).Scan(
		&mv.ID, &mv.Version, &mv.ModelType, &mv.Status, &mv.Hyperparameters, &mv.Metrics,
		&mv.TrainingStart, &mv.TrainingEnd, &mv.ActivatedAt, &mv.CreatedAt, &mv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model version: %w", err)
	}

	return mv, nil
}

// GetActive retrieves the currently active model version. The at-most-one-active
// invariant is enforced at activation time; ordering by activated_at descending
// is a defensive fallback so the newest activation wins if the invariant was
// ever violated upstream.
func (m *PostgresModelVersionRepository) GetActive(ctx context.Context) (*models.ModelVersion, error) {
	query := `
		SELECT ` + modelVersionColumns + `
		FROM model_versions
		WHERE status = $1
		ORDER BY activated_at DESC NULLS LAST
		LIMIT 1
	`

	mv := &models.ModelVersion{}
	err := m.db.GetPool().QueryRow(ctx, query, models.StatusActive).Scan(
		&mv.ID, &mv.Version, &mv.ModelType, &mv.Status, &mv.Hyperparameters, &mv.Metrics,
		&mv.TrainingStart, &mv.TrainingEnd, &mv.ActivatedAt, &mv.CreatedAt, &mv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model version: %w", err)
	}

	return mv, nil
}

// GetHistory retrieves a bounded version history ordered by creation time descending
func (m *PostgresModelVersionRepository) GetHistory(ctx context.Context, limit int) ([]*models.ModelVersion, error) {
	query := `
		SELECT ` + modelVersionColumns + `
		FROM model_versions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := m.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query model version history: %w", err)
	}
	defer rows.Close()

	var versions []*models.ModelVersion
	for rows.Next() {
		mv := &models.ModelVersion{}
		err := rows.Scan(
			&mv.ID, &mv.Version, &mv.ModelType, &mv.Status, &mv.Hyperparameters, &mv.Metrics,
			&mv.TrainingStart, &mv.TrainingEnd, &mv.ActivatedAt, &mv.CreatedAt, &mv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model version: %w", err)
		}
		versions = append(versions, mv)
	}

	return versions, rows.Err()
}

// UpdateStatus updates the lifecycle status of a model version
func (m *PostgresModelVersionRepository) UpdateStatus(ctx context.Context, version string, status models.ModelStatus) error {
	query := `UPDATE model_versions SET status = $2, updated_at = NOW() WHERE version = $1`

	commandTag, err := m.db.GetPool().Exec(ctx, query, version, status)
	if err != nil {
		return fmt.Errorf("failed to update model version status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateMetrics stores evaluation metrics for a model version
func (m *PostgresModelVersionRepository) UpdateMetrics(ctx context.Context, version string, metrics []byte) error {
	query := `UPDATE model_versions SET metrics = $2, updated_at = NOW() WHERE version = $1`

	commandTag, err := m.db.GetPool().Exec(ctx, query, version, metrics)
	if err != nil {
		return fmt.Errorf("failed to update model version metrics: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// activationLockID is the advisory lock key serializing model activations.
// Row locks alone are not enough: two activations of different versions lock
// disjoint rows, and each deprecate-update then runs against a snapshot that
// cannot see the other's uncommitted activation, leaving two active rows.
const activationLockID = 874021

// Activate sets a model version as active and deprecates every currently active
// version. Both writes run in a single transaction under an advisory lock, so
// concurrent activations serialize and exactly one version ends up active.
func (m *PostgresModelVersionRepository) Activate(ctx context.Context, version string) (*models.ModelVersion, error) {
	var activated *models.ModelVersion

	err := m.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, activationLockID); err != nil {
			return fmt.Errorf("failed to acquire activation lock: %w", err)
		}

		var status models.ModelStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM model_versions WHERE version = $1 FOR UPDATE`, version,
		).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock model version: %w", err)
		}

		switch status {
		case models.StatusActive, models.StatusDeprecated, models.StatusFailed:
			return models.ErrInvalidTransition
		}

		_, err = tx.Exec(ctx,
			`UPDATE model_versions SET status = $1, updated_at = NOW() WHERE status = $2`,
			models.StatusDeprecated, models.StatusActive,
		)
		if err != nil {
			return fmt.Errorf("failed to deprecate active versions: %w", err)
		}

		now := time.Now().UTC()
		mv := &models.ModelVersion{}
		err = tx.QueryRow(ctx, `
			UPDATE model_versions
			SET status = $2, activated_at = $3, updated_at = NOW()
			WHERE version = $1
			RETURNING `+modelVersionColumns,
			version, models.StatusActive, now,
		).Scan(
			&mv.ID, &mv.Version, &mv.ModelType, &mv.Status, &mv.Hyperparameters, &mv.Metrics,
			&mv.TrainingStart, &mv.TrainingEnd, &mv.ActivatedAt, &mv.CreatedAt, &mv.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to activate model version: %w", err)
		}

		activated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return activated, nil
}
