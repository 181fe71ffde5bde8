package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/models"
)

const alertColumns = `
	id, severity, type, title, detail, model_version, game_id,
	created_at, acknowledged_at, acknowledged_by
`

// PostgresAlertRepository implements AlertRepository for PostgreSQL
type PostgresAlertRepository struct {
	db *database.DB
}

// NewPostgresAlertRepository creates a new alert repository
func NewPostgresAlertRepository(db *database.DB) AlertRepository {
	return &PostgresAlertRepository{db: db}
}

// Create inserts a new alert row
func (r *PostgresAlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, severity, type, title, detail, model_version, game_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		alert.ID, alert.Severity, alert.Type, alert.Title,
		alert.Detail, alert.ModelVersion, alert.GameID,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetByID retrieves an alert by ID
func (r *PostgresAlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert := &models.Alert{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&alert.ID, &alert.Severity, &alert.Type, &alert.Title, &alert.Detail,
		&alert.ModelVersion, &alert.GameID, &alert.CreatedAt,
		&alert.AcknowledgedAt, &alert.AcknowledgedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// GetRecent retrieves the most recent alerts, newest first
func (r *PostgresAlertRepository) GetRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC LIMIT $1`
	return r.queryAlerts(ctx, query, limit)
}

// GetUnacknowledged retrieves all unacknowledged alerts, newest first
func (r *PostgresAlertRepository) GetUnacknowledged(ctx context.Context) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE acknowledged_at IS NULL
		ORDER BY created_at DESC
	`
	return r.queryAlerts(ctx, query)
}

// GetBySeverity retrieves alerts of a given severity, newest first
func (r *PostgresAlertRepository) GetBySeverity(ctx context.Context, severity models.AlertSeverity, limit int) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE severity = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryAlerts(ctx, query, severity, limit)
}

// GetByType retrieves alerts of a given type, newest first
func (r *PostgresAlertRepository) GetByType(ctx context.Context, alertType string, limit int) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryAlerts(ctx, query, alertType, limit)
}

// Acknowledge stamps an unacknowledged alert and returns the updated row plus
// whether this call performed the stamp. Acknowledging an already-acknowledged
// alert returns the existing row unchanged with stamped false; the conditional
// update plus reread makes a lost race benign.
func (r *PostgresAlertRepository) Acknowledge(ctx context.Context, id uuid.UUID, userID string, at time.Time) (*models.Alert, bool, error) {
	query := `
		UPDATE alerts
		SET acknowledged_at = $2, acknowledged_by = $3
		WHERE id = $1 AND acknowledged_at IS NULL
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query, id, at, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	stamped := commandTag.RowsAffected() > 0

	// Zero rows affected means either the alert does not exist or it was
	// already acknowledged; the reread distinguishes the two.
	alert, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if !stamped && !alert.IsAcknowledged() {
		return nil, false, models.ErrNotFound
	}

	return alert, stamped, nil
}

// CountUnacknowledgedBySeverity counts unacknowledged alerts of a severity
// created since the given time. Used as a rolling dashboard/health signal.
func (r *PostgresAlertRepository) CountUnacknowledgedBySeverity(ctx context.Context, severity models.AlertSeverity, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM alerts
		WHERE severity = $1 AND acknowledged_at IS NULL AND created_at >= $2
	`

	var count int
	err := r.db.GetPool().QueryRow(ctx, query, severity, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unacknowledged alerts: %w", err)
	}

	return count, nil
}

func (r *PostgresAlertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]*models.Alert, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert := &models.Alert{}
		err := rows.Scan(
			&alert.ID, &alert.Severity, &alert.Type, &alert.Title, &alert.Detail,
			&alert.ModelVersion, &alert.GameID, &alert.CreatedAt,
			&alert.AcknowledgedAt, &alert.AcknowledgedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
