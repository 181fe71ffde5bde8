// Package registry tracks the lifecycle of trained model versions and
// enforces the at-most-one-active invariant.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/metrics"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/repository"
)

const activeVersionCacheKey = "active_model_version"

// Registry manages model version lifecycle transitions and lookups. The active
// version is cached with a short TTL because it sits on the per-request edge
// computation path; every lifecycle write invalidates the cache.
type Registry struct {
	repo     repository.ModelVersionRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
	audit    *logger.AuditLogger
}

// NewRegistry creates a new model registry
func NewRegistry(repo repository.ModelVersionRepository, cacheTTL time.Duration, log *logrus.Logger) *Registry {
	return &Registry{
		repo:     repo,
		cache:    cache.New(cacheTTL, cacheTTL*2),
		cacheTTL: cacheTTL,
		logger:   log,
		audit:    logger.NewAuditLogger(log),
	}
}

// Register creates a new model version in the training state
func (r *Registry) Register(ctx context.Context, version, modelType string, hyperparameters json.RawMessage, trainingStart, trainingEnd time.Time) (*models.ModelVersion, error) {
	mv := &models.ModelVersion{
		ID:              uuid.New(),
		Version:         version,
		ModelType:       modelType,
		Status:          models.StatusTraining,
		Hyperparameters: hyperparameters,
		TrainingStart:   trainingStart,
		TrainingEnd:     trainingEnd,
	}

	if err := r.repo.Create(ctx, mv); err != nil {
		return nil, fmt.Errorf("failed to register model version: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"version":    version,
		"model_type": modelType,
	}).Info("Model version registered")

	return mv, nil
}

// GetActive returns the currently active model version, from cache when fresh
func (r *Registry) GetActive(ctx context.Context) (*models.ModelVersion, error) {
	if cached, found := r.cache.Get(activeVersionCacheKey); found {
		if mv, ok := cached.(*models.ModelVersion); ok {
			return mv, nil
		}
	}

	mv, err := r.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	r.cache.Set(activeVersionCacheKey, mv, r.cacheTTL)
	return mv, nil
}

// GetByVersion returns a model version by its version string
func (r *Registry) GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error) {
	return r.repo.GetByVersion(ctx, version)
}

// GetHistory returns a bounded version history, newest first
func (r *Registry) GetHistory(ctx context.Context, limit int) ([]*models.ModelVersion, error) {
	return r.repo.GetHistory(ctx, limit)
}

// Activate promotes a version to active, deprecating every currently active
// version in the same transaction. An unknown version is a recoverable
// not-found outcome; a version already active or in a terminal state is an
// invalid transition.
func (r *Registry) Activate(ctx context.Context, version string) (*models.ModelVersion, error) {
	mv, err := r.repo.Activate(ctx, version)
	if err != nil {
		return nil, err
	}

	r.cache.Delete(activeVersionCacheKey)
	metrics.RecordModelActivation()

	activatedAt := time.Now().UTC()
	if mv.ActivatedAt != nil {
		activatedAt = *mv.ActivatedAt
	}
	r.audit.LogModelActivation(mv.Version, nil, activatedAt)

	return mv, nil
}

// MarkValidating moves a training version into validation
func (r *Registry) MarkValidating(ctx context.Context, version string) error {
	return r.transition(ctx, version, models.StatusValidating, models.StatusTraining)
}

// MarkFailed marks a training or validating version as failed
func (r *Registry) MarkFailed(ctx context.Context, version string) error {
	return r.transition(ctx, version, models.StatusFailed, models.StatusTraining, models.StatusValidating)
}

// Deprecate retires the active version without promoting a replacement
func (r *Registry) Deprecate(ctx context.Context, version string) error {
	return r.transition(ctx, version, models.StatusDeprecated, models.StatusActive)
}

// RecordEvaluation stores evaluation metrics (accuracy, log-loss, Brier,
// calibration) for a version once evaluation completes. The payload is an open
// key-to-scalar mapping preserved verbatim.
func (r *Registry) RecordEvaluation(ctx context.Context, version string, evalMetrics json.RawMessage) error {
	if err := r.repo.UpdateMetrics(ctx, version, evalMetrics); err != nil {
		return err
	}

	r.logger.WithField("version", version).Info("Model evaluation metrics recorded")
	return nil
}

func (r *Registry) transition(ctx context.Context, version string, to models.ModelStatus, from ...models.ModelStatus) error {
	mv, err := r.repo.GetByVersion(ctx, version)
	if err != nil {
		return err
	}

	allowed := false
	for _, s := range from {
		if mv.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, mv.Status, to)
	}

	if err := r.repo.UpdateStatus(ctx, version, to); err != nil {
		return err
	}

	r.cache.Delete(activeVersionCacheKey)
	r.audit.LogModelStatusChange(version, string(mv.Status), string(to))

	return nil
}
