package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ModelStatus represents the lifecycle state of a trained model version.
type ModelStatus string

// Model lifecycle states. A version starts in training and moves forward only:
// training -> validating -> active -> deprecated/failed. Versions are never
// hard-deleted; deprecated and failed rows remain for audit.
const (
	StatusTraining   ModelStatus = "training"
	StatusValidating ModelStatus = "validating"
	StatusActive     ModelStatus = "active"
	StatusDeprecated ModelStatus = "deprecated"
	StatusFailed     ModelStatus = "failed"
)

// ModelVersion represents a trained ML model version tracked by the registry
type ModelVersion struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Version         string          `db:"version" json:"version" validate:"required"`
	ModelType       string          `db:"model_type" json:"model_type" validate:"required"`
	Status          ModelStatus     `db:"status" json:"status" validate:"required"`
	Hyperparameters json.RawMessage `db:"hyperparameters" json:"hyperparameters"`
	Metrics         json.RawMessage `db:"metrics" json:"metrics"`
	TrainingStart   time.Time       `db:"training_start" json:"training_start"`
	TrainingEnd     time.Time       `db:"training_end" json:"training_end"`
	ActivatedAt     *time.Time      `db:"activated_at" json:"activated_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsActive checks if the version is currently active
func (m *ModelVersion) IsActive() bool {
	return m.Status == StatusActive
}

// IsTerminal checks if the version is in a terminal state
func (m *ModelVersion) IsTerminal() bool {
	return m.Status == StatusDeprecated || m.Status == StatusFailed
}

// CanActivate checks whether an activation of this version is permitted
func (m *ModelVersion) CanActivate() bool {
	return m.Status == StatusTraining || m.Status == StatusValidating
}

// GetMetric retrieves a metric value from the Metrics JSON
func (m *ModelVersion) GetMetric(name string) (interface{}, error) {
	if m.Metrics == nil {
		return nil, nil
	}

	var metrics map[string]interface{}
	if err := json.Unmarshal(m.Metrics, &metrics); err != nil {
		return nil, err
	}

	return metrics[name], nil
}

// GetHyperparameter retrieves a hyperparameter value from the Hyperparameters JSON
func (m *ModelVersion) GetHyperparameter(name string) (interface{}, error) {
	if m.Hyperparameters == nil {
		return nil, nil
	}

	var params map[string]interface{}
	if err := json.Unmarshal(m.Hyperparameters, &params); err != nil {
		return nil, err
	}

	return params[name], nil
}
