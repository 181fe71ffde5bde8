//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/repository"
)

const skipIntegration = "Skipping integration test in short mode"

func seedModelVersion(t *testing.T, ctx context.Context, repo repository.ModelVersionRepository) *models.ModelVersion {
	t.Helper()

	mv := &models.ModelVersion{
		ID:              uuid.New(),
		Version:         fmt.Sprintf("it-%s", uuid.New().String()[:8]),
		ModelType:       "gradient_boosting",
		Status:          models.StatusTraining,
		Hyperparameters: json.RawMessage(`{"max_depth":6}`),
		TrainingStart:   time.Now().AddDate(0, 0, -30),
		TrainingEnd:     time.Now(),
	}
	require.NoError(t, repo.Create(ctx, mv))
	return mv
}

// TestRepositoryIntegration tests all repositories against real PostgreSQL
func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegration)
	}

	ctx := context.Background()
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	t.Run("ModelVersionLifecycle", func(t *testing.T) {
		first := seedModelVersion(t, ctx, repos.ModelVersion)
		second := seedModelVersion(t, ctx, repos.ModelVersion)

		activated, err := repos.ModelVersion.Activate(ctx, first.Version)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, activated.Status)
		require.NotNil(t, activated.ActivatedAt)

		// Promoting the second version retires the first in the same transaction.
		_, err = repos.ModelVersion.Activate(ctx, second.Version)
		require.NoError(t, err)

		retired, err := repos.ModelVersion.GetByVersion(ctx, first.Version)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeprecated, retired.Status)

		active, err := repos.ModelVersion.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.Version, active.Version)

		_, err = repos.ModelVersion.Activate(ctx, first.Version)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("DriftMetricWindow", func(t *testing.T) {
		mv := seedModelVersion(t, ctx, repos.ModelVersion)

		feature := "home_win_rate"
		batch := []*models.DriftMetric{
			{
				ID:           uuid.New(),
				ModelVersion: mv.Version,
				MetricType:   models.MetricTypePSI,
				FeatureName:  &feature,
				Value:        0.12,
				Threshold:    0.2,
				WindowStart:  time.Now().Add(-time.Hour),
				WindowEnd:    time.Now(),
			},
			{
				ID:           uuid.New(),
				ModelVersion: mv.Version,
				MetricType:   models.MetricTypePSI,
				Value:        0.31,
				Threshold:    0.2,
				IsDrifted:    true,
				WindowStart:  time.Now().Add(-time.Hour),
				WindowEnd:    time.Now(),
			},
		}
		require.NoError(t, repos.DriftMetric.InsertBatch(ctx, batch))

		window, err := repos.DriftMetric.GetRecentByModelVersion(ctx, mv.Version, 10)
		require.NoError(t, err)
		require.Len(t, window, 2)
		// Newest first.
		assert.False(t, window[0].CreatedAt.Before(window[1].CreatedAt))
	})

	t.Run("AlertAcknowledgeIdempotent", func(t *testing.T) {
		a := &models.Alert{
			ID:       uuid.New(),
			Severity: models.SeverityCrit,
			Type:     models.AlertTypeModelDrift,
			Title:    "integration drift alert",
		}
		require.NoError(t, repos.Alert.Create(ctx, a))

		first, stamped, err := repos.Alert.Acknowledge(ctx, a.ID, "ops-a", time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, stamped)
		require.NotNil(t, first.AcknowledgedAt)
		require.NotNil(t, first.AcknowledgedBy)
		assert.Equal(t, "ops-a", *first.AcknowledgedBy)

		second, stamped, err := repos.Alert.Acknowledge(ctx, a.ID, "ops-b", time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, stamped)
		assert.Equal(t, *first.AcknowledgedBy, *second.AcknowledgedBy)
		assert.WithinDuration(t, *first.AcknowledgedAt, *second.AcknowledgedAt, time.Millisecond)
	})

	t.Run("PredictionSnapshot", func(t *testing.T) {
		mv := seedModelVersion(t, ctx, repos.ModelVersion)
		gameID := uuid.New()

		p := &models.Prediction{
			ID:            uuid.New(),
			ModelVersion:  mv.Version,
			GameID:        gameID,
			Probability:   0.65,
			MarketOdds:    -150,
			Edge:          0.05,
			ExpectedValue: 0.0833,
			KellyStake:    0.0208,
			Features:      json.RawMessage(`{"home_win_rate":0.61}`),
			PredictedAt:   time.Now().UTC(),
		}
		require.NoError(t, repos.Prediction.Insert(ctx, p))

		byGame, err := repos.Prediction.GetByGameID(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, byGame, 1)
		assert.Equal(t, -150, byGame[0].MarketOdds)
		assert.InDelta(t, 0.65, byGame[0].Probability, 1e-9)
	})
}

// TestConcurrentActivationLeavesOneActiveRow races two activations of
// different versions against real PostgreSQL. Whatever the interleaving, the
// table must end with exactly one active row.
func TestConcurrentActivationLeavesOneActiveRow(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegration)
	}

	ctx := context.Background()
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	first := seedModelVersion(t, ctx, repos.ModelVersion)
	second := seedModelVersion(t, ctx, repos.ModelVersion)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = repos.ModelVersion.Activate(ctx, first.Version)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = repos.ModelVersion.Activate(ctx, second.Version)
	}()
	wg.Wait()

	// Both activations succeed; the later one deprecates the earlier one.
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var activeCount int
	err = db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM model_versions WHERE status = $1`, models.StatusActive,
	).Scan(&activeCount)
	require.NoError(t, err)
	assert.Equal(t, 1, activeCount)

	active, err := repos.ModelVersion.GetActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{first.Version, second.Version}, active.Version)
}
