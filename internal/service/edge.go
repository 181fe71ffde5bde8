package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/odds"
	"github.com/yourusername/sharp-edge/internal/registry"
	"github.com/yourusername/sharp-edge/internal/repository"
)

// EdgeService computes edge figures for a model probability against a market
// price and persists the result as a prediction snapshot attributed to the
// active model version.
type EdgeService struct {
	registry      *registry.Registry
	predictions   repository.PredictionRepository
	kellyFraction float64
	minEdge       float64
	logger        *logrus.Logger
}

// NewEdgeService creates a new edge service
func NewEdgeService(reg *registry.Registry, predictions repository.PredictionRepository, kellyFraction, minEdge float64, log *logrus.Logger) *EdgeService {
	return &EdgeService{
		registry:      reg,
		predictions:   predictions,
		kellyFraction: kellyFraction,
		minEdge:       minEdge,
		logger:        log,
	}
}

// Evaluate computes the edge for a game and stores the snapshot. The snapshot
// records the market price and figures as they were at prediction time; later
// line movement never rewrites it. A stake is only recommended when the edge
// clears the configured minimum.
func (s *EdgeService) Evaluate(ctx context.Context, gameID uuid.UUID, modelProb float64, marketOdds int, features json.RawMessage) (*models.Prediction, error) {
	active, err := s.registry.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active model: %w", err)
	}

	result := odds.ComputeEdge(modelProb, marketOdds, s.kellyFraction)

	stake := result.KellyStake
	if result.Edge < s.minEdge {
		stake = 0
	}

	prediction := &models.Prediction{
		ID:            uuid.New(),
		ModelVersion:  active.Version,
		GameID:        gameID,
		Probability:   modelProb,
		MarketOdds:    marketOdds,
		Edge:          result.Edge,
		ExpectedValue: result.ExpectedValue,
		KellyStake:    stake,
		Features:      features,
		PredictedAt:   time.Now().UTC(),
	}

	if err := s.predictions.Insert(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to store prediction snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"game_id":       gameID,
		"model_version": active.Version,
		"edge":          result.Edge,
		"kelly_stake":   stake,
	}).Debug("Stored prediction snapshot")

	return prediction, nil
}

// History returns recent prediction snapshots for a model version.
func (s *EdgeService) History(ctx context.Context, modelVersion string, limit int) ([]*models.Prediction, error) {
	return s.predictions.GetRecentByModelVersion(ctx, modelVersion, limit)
}

// ForGame returns all snapshots recorded for a game, across model versions.
func (s *EdgeService) ForGame(ctx context.Context, gameID uuid.UUID) ([]*models.Prediction, error) {
	return s.predictions.GetByGameID(ctx, gameID)
}
