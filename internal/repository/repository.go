package repository

import (
	"fmt"

	"github.com/yourusername/sharp-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	ModelVersion ModelVersionRepository
	DriftMetric  DriftMetricRepository
	Alert        AlertRepository
	Prediction   PredictionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		ModelVersion: NewPostgresModelVersionRepository(db),
		DriftMetric:  NewPostgresDriftMetricRepository(db),
		Alert:        NewPostgresAlertRepository(db),
		Prediction:   NewPostgresPredictionRepository(db),
	}, nil
}
