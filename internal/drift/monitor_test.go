package drift

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/models"
)

// MockDriftMetricRepository mocks drift metric repository
type MockDriftMetricRepository struct {
	mock.Mock
}

func (m *MockDriftMetricRepository) Insert(ctx context.Context, metric *models.DriftMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockDriftMetricRepository) InsertBatch(ctx context.Context, metrics []*models.DriftMetric) error {
	args := m.Called(ctx, metrics)
	return args.Error(0)
}

func (m *MockDriftMetricRepository) GetRecentByModelVersion(ctx context.Context, version string, limit int) ([]*models.DriftMetric, error) {
	args := m.Called(ctx, version, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DriftMetric), args.Error(1)
}

func psiMetric(feature string, value float64, drifted bool, age time.Duration) *models.DriftMetric {
	return &models.DriftMetric{
		ID:           uuid.New(),
		ModelVersion: "v1",
		MetricType:   models.MetricTypePSI,
		FeatureName:  &feature,
		Value:        value,
		Threshold:    0.2,
		IsDrifted:    drifted,
		CreatedAt:    time.Now().Add(-age),
	}
}

func TestReduceDedupKeepsNewestPerFeature(t *testing.T) {
	// Newest-first history: the later duplicate row for feature a must be
	// ignored by first-wins dedup.
	history := []*models.DriftMetric{
		psiMetric("a", 0.3, true, 1*time.Minute),
		psiMetric("b", 0.1, false, 2*time.Minute),
		psiMetric("c", 0.3, true, 3*time.Minute),
		psiMetric("a", 0.9, true, 10*time.Minute),
	}

	verdict := Reduce("v1", history)

	assert.InDelta(t, (0.3+0.1+0.3)/3.0, verdict.OverallPSI, 1e-9)
	assert.True(t, verdict.IsDrifted)
	assert.Equal(t, []string{"a", "c"}, verdict.DriftedFeatures)
	assert.Equal(t, 3, verdict.FeatureCount)
}

func TestReduceEmptyHistoryMeansNoDrift(t *testing.T) {
	verdict := Reduce("v1", nil)

	assert.Equal(t, 0.0, verdict.OverallPSI)
	assert.False(t, verdict.IsDrifted)
	assert.Empty(t, verdict.DriftedFeatures)
}

func TestReduceNilFeatureUsesOverallKey(t *testing.T) {
	history := []*models.DriftMetric{
		{
			ID:           uuid.New(),
			ModelVersion: "v1",
			MetricType:   models.MetricTypePSI,
			FeatureName:  nil,
			Value:        0.4,
			IsDrifted:    true,
		},
	}

	verdict := Reduce("v1", history)

	assert.True(t, verdict.IsDrifted)
	assert.Equal(t, []string{models.OverallFeatureKey}, verdict.DriftedFeatures)
	assert.InDelta(t, 0.4, verdict.OverallPSI, 1e-9)
}

func TestReduceNonPSIMetricsDoNotDriveVerdict(t *testing.T) {
	ks := "ks_feature"
	history := []*models.DriftMetric{
		{
			ID:           uuid.New(),
			ModelVersion: "v1",
			MetricType:   models.MetricTypeKS,
			FeatureName:  &ks,
			Value:        0.9,
			IsDrifted:    true,
		},
		psiMetric("stable", 0.05, false, time.Minute),
	}

	verdict := Reduce("v1", history)

	// The drifted KS row is stored but only PSI drives the verdict.
	assert.False(t, verdict.IsDrifted)
	assert.InDelta(t, 0.05, verdict.OverallPSI, 1e-9)
	assert.Empty(t, verdict.DriftedFeatures)
}

func TestReduceNewerNonPSIRowShadowsOlderPSIRow(t *testing.T) {
	feature := "a"
	history := []*models.DriftMetric{
		{
			ID:           uuid.New(),
			ModelVersion: "v1",
			MetricType:   models.MetricTypeWasserstein,
			FeatureName:  &feature,
			Value:        1.5,
			IsDrifted:    true,
			CreatedAt:    time.Now(),
		},
		psiMetric("a", 0.8, true, time.Hour),
	}

	verdict := Reduce("v1", history)

	// Dedup happens before the PSI partition: the newer Wasserstein row is
	// feature a's current observation, so the stale PSI row cannot fire.
	assert.False(t, verdict.IsDrifted)
	assert.Equal(t, 0.0, verdict.OverallPSI)
}

func TestMonitorEvaluate(t *testing.T) {
	repo := new(MockDriftMetricRepository)
	log := logger.NewLogger("error")
	monitor := NewMonitor(repo, 100, log)

	history := []*models.DriftMetric{
		psiMetric("a", 0.3, true, 1*time.Minute),
		psiMetric("b", 0.1, false, 2*time.Minute),
	}
	repo.On("GetRecentByModelVersion", mock.Anything, "v1", 100).Return(history, nil)

	verdict, err := monitor.Evaluate(context.Background(), "v1")
	require.NoError(t, err)

	assert.Equal(t, "v1", verdict.ModelVersion)
	assert.True(t, verdict.IsDrifted)
	assert.InDelta(t, 0.2, verdict.OverallPSI, 1e-9)
	repo.AssertExpectations(t)
}

func TestMonitorWindowFallback(t *testing.T) {
	repo := new(MockDriftMetricRepository)
	log := logger.NewLogger("error")
	monitor := NewMonitor(repo, 0, log)

	repo.On("GetRecentByModelVersion", mock.Anything, "v1", DefaultWindowSize).
		Return([]*models.DriftMetric{}, nil)

	verdict, err := monitor.Evaluate(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, verdict.IsDrifted)
	repo.AssertExpectations(t)
}

func TestVerdictViewSerializesPSIAsDecimal(t *testing.T) {
	verdict := Reduce("v1", []*models.DriftMetric{
		psiMetric("a", 0.3, true, time.Minute),
		psiMetric("b", 0.1, false, 2*time.Minute),
		psiMetric("c", 0.3, true, 3*time.Minute),
	})

	view := verdict.View()
	assert.Equal(t, "0.233333", view.OverallPSI.StringFixed(6))
}
