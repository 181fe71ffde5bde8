// Package drift reduces per-feature distributional-distance metrics recorded
// against a model version into an overall drift verdict.
package drift

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/metrics"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/repository"
)

// DefaultWindowSize bounds how many recent metric rows feed an evaluation.
const DefaultWindowSize = 100

// Verdict is the outcome of a drift evaluation for one model version.
type Verdict struct {
	ModelVersion    string    `json:"model_version"`
	OverallPSI      float64   `json:"overall_psi"`
	IsDrifted       bool      `json:"is_drifted"`
	DriftedFeatures []string  `json:"drifted_features"`
	FeatureCount    int       `json:"feature_count"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// VerdictView is the wire representation of a verdict; the PSI figure
// serializes as a decimal string.
type VerdictView struct {
	ModelVersion    string          `json:"model_version"`
	OverallPSI      decimal.Decimal `json:"overall_psi"`
	IsDrifted       bool            `json:"is_drifted"`
	DriftedFeatures []string        `json:"drifted_features"`
	FeatureCount    int             `json:"feature_count"`
	EvaluatedAt     time.Time       `json:"evaluated_at"`
}

// View converts the verdict to its wire representation.
func (v *Verdict) View() VerdictView {
	return VerdictView{
		ModelVersion:    v.ModelVersion,
		OverallPSI:      decimal.NewFromFloat(v.OverallPSI).Round(6),
		IsDrifted:       v.IsDrifted,
		DriftedFeatures: v.DriftedFeatures,
		FeatureCount:    v.FeatureCount,
		EvaluatedAt:     v.EvaluatedAt,
	}
}

// Monitor evaluates drift verdicts from stored metric history.
type Monitor struct {
	repo       repository.DriftMetricRepository
	windowSize int
	logger     *logrus.Logger
	audit      *logger.AuditLogger
}

// NewMonitor creates a new drift monitor. A non-positive window size falls
// back to DefaultWindowSize.
func NewMonitor(repo repository.DriftMetricRepository, windowSize int, log *logrus.Logger) *Monitor {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Monitor{
		repo:       repo,
		windowSize: windowSize,
		logger:     log,
		audit:      logger.NewAuditLogger(log),
	}
}

// Evaluate loads the recent metric window for a model version and reduces it
// to a verdict. Recomputing concurrently is harmless; the reduction is a pure
// function of the stored history.
func (m *Monitor) Evaluate(ctx context.Context, modelVersion string) (*Verdict, error) {
	history, err := m.repo.GetRecentByModelVersion(ctx, modelVersion, m.windowSize)
	if err != nil {
		return nil, err
	}

	verdict := Reduce(modelVersion, history)

	metrics.RecordDriftEvaluation(verdict.IsDrifted)
	metrics.UpdateOverallPSI(modelVersion, verdict.OverallPSI)
	m.audit.LogDriftVerdict(modelVersion, verdict.OverallPSI, verdict.IsDrifted, verdict.DriftedFeatures)

	return &verdict, nil
}

// Reduce computes a drift verdict from metric history ordered newest-first.
//
// Rows are deduplicated by feature key keeping the first row seen per key;
// because the history is append-only and newest-first, first-wins equals
// last-write-wins without sorting inside the window. Only PSI rows drive the
// verdict: the overall PSI is the arithmetic mean of the deduplicated PSI
// values (0 when there are none; no drift evidence defaults to no drift) and
// a feature counts as drifted when its current PSI row is flagged. KS and
// Wasserstein rows participate in dedup but contribute to neither figure.
func Reduce(modelVersion string, history []*models.DriftMetric) Verdict {
	verdict := Verdict{
		ModelVersion:    modelVersion,
		DriftedFeatures: []string{},
		EvaluatedAt:     time.Now().UTC(),
	}

	current := make(map[string]*models.DriftMetric, len(history))
	for _, metric := range history {
		key := metric.FeatureKey()
		if _, seen := current[key]; seen {
			continue
		}
		current[key] = metric
	}
	verdict.FeatureCount = len(current)

	psiSum := 0.0
	psiCount := 0
	for key, metric := range current {
		if metric.MetricType != models.MetricTypePSI {
			continue
		}
		psiSum += metric.Value
		psiCount++
		if metric.IsDrifted {
			verdict.DriftedFeatures = append(verdict.DriftedFeatures, key)
		}
	}

	if psiCount > 0 {
		verdict.OverallPSI = psiSum / float64(psiCount)
	}
	sort.Strings(verdict.DriftedFeatures)
	verdict.IsDrifted = len(verdict.DriftedFeatures) > 0

	return verdict
}
