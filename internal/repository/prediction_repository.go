package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/models"
)

const predictionColumns = `
	id, model_version, game_id, probability, market_odds, edge,
	expected_value, kelly_stake, features, predicted_at
`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert stores a prediction snapshot with its computed edge figures
func (r *PostgresPredictionRepository) Insert(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, model_version, game_id, probability, market_odds, edge, expected_value, kelly_stake, features, predicted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.ModelVersion, prediction.GameID,
		prediction.Probability, prediction.MarketOdds, prediction.Edge,
		prediction.ExpectedValue, prediction.KellyStake,
		prediction.Features, prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// GetByGameID retrieves prediction snapshots for a game, newest first
func (r *PostgresPredictionRepository) GetByGameID(ctx context.Context, gameID uuid.UUID) ([]*models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE game_id = $1
		ORDER BY predicted_at DESC
	`
	return r.queryPredictions(ctx, query, gameID)
}

// GetRecentByModelVersion retrieves the most recent predictions for a model version
func (r *PostgresPredictionRepository) GetRecentByModelVersion(ctx context.Context, version string, limit int) ([]*models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE model_version = $1
		ORDER BY predicted_at DESC
		LIMIT $2
	`
	return r.queryPredictions(ctx, query, version, limit)
}

func (r *PostgresPredictionRepository) queryPredictions(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		prediction := &models.Prediction{}
		err := rows.Scan(
			&prediction.ID, &prediction.ModelVersion, &prediction.GameID,
			&prediction.Probability, &prediction.MarketOdds, &prediction.Edge,
			&prediction.ExpectedValue, &prediction.KellyStake,
			&prediction.Features, &prediction.PredictedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}

	return predictions, rows.Err()
}
