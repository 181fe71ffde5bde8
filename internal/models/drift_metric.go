package models

import (
	"time"

	"github.com/google/uuid"
)

// Drift metric types recorded against a model version.
const (
	MetricTypePSI         = "psi"
	MetricTypeKS          = "ks"
	MetricTypeWasserstein = "wasserstein"
)

// OverallFeatureKey is the sentinel feature key for metrics computed over the
// model's whole prediction distribution rather than a single input feature.
const OverallFeatureKey = "overall"

// DriftMetric represents a single distributional-distance observation for a
// model version. Rows are append-only: a new observation is a new row, never
// an update of an existing one.
type DriftMetric struct {
	ID           uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ModelVersion string    `db:"model_version" json:"model_version" validate:"required"`
	MetricType   string    `db:"metric_type" json:"metric_type" validate:"required,oneof=psi ks wasserstein"`
	FeatureName  *string   `db:"feature_name" json:"feature_name,omitempty"`
	Value        float64   `db:"value" json:"value"`
	Threshold    float64   `db:"threshold" json:"threshold"`
	IsDrifted    bool      `db:"is_drifted" json:"is_drifted"`
	WindowStart  time.Time `db:"window_start" json:"window_start"`
	WindowEnd    time.Time `db:"window_end" json:"window_end"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FeatureKey returns the dedup key for this metric: the feature name, or the
// overall sentinel when the metric is not feature-scoped.
func (d *DriftMetric) FeatureKey() string {
	if d.FeatureName == nil || *d.FeatureName == "" {
		return OverallFeatureKey
	}
	return *d.FeatureName
}
