// Package service contains the orchestration layer that ties the registry,
// drift monitor, and alert gate together.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/alert"
	"github.com/yourusername/sharp-edge/internal/drift"
	"github.com/yourusername/sharp-edge/internal/metrics"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/registry"
)

// DriftScanService runs one full monitoring pass: resolve the active model
// version, reduce its recent metric history to a verdict, and let the alert
// gate decide whether anything needs raising.
type DriftScanService struct {
	registry *registry.Registry
	monitor  *drift.Monitor
	gate     *alert.Gate
	logger   *logrus.Logger
}

// NewDriftScanService creates a new drift scan service
func NewDriftScanService(reg *registry.Registry, monitor *drift.Monitor, gate *alert.Gate, log *logrus.Logger) *DriftScanService {
	return &DriftScanService{
		registry: reg,
		monitor:  monitor,
		gate:     gate,
		logger:   log,
	}
}

// RunScan executes one drift scan against the currently active model version.
// Having no active version is a normal state (fresh deployment, everything
// deprecated), not an error. Running two scans concurrently is harmless: the
// verdict is a pure function of stored history and duplicate alerts are
// acceptable noise.
func (s *DriftScanService) RunScan(ctx context.Context) (*drift.Verdict, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDriftScan(time.Since(start).Seconds())
	}()

	active, err := s.registry.GetActive(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("No active model version, skipping drift scan")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve active model: %w", err)
	}

	verdict, err := s.monitor.Evaluate(ctx, active.Version)
	if err != nil {
		return nil, fmt.Errorf("drift evaluation failed for %s: %w", active.Version, err)
	}

	raised, err := s.gate.RaiseFromVerdict(ctx, verdict)
	if err != nil {
		return verdict, fmt.Errorf("failed to raise drift alert for %s: %w", active.Version, err)
	}

	// Refresh the rolling crit gauge while we are here; failure is logged
	// only, the scan result stands.
	if _, err := s.gate.UnackedCritCount(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh unacknowledged crit alert count")
	}

	fields := logrus.Fields{
		"model_version": active.Version,
		"overall_psi":   verdict.OverallPSI,
		"is_drifted":    verdict.IsDrifted,
	}
	if raised != nil {
		fields["alert_id"] = raised.ID
		fields["severity"] = raised.Severity
	}
	s.logger.WithFields(fields).Info("Drift scan completed")

	return verdict, nil
}
