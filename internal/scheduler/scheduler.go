// Package scheduler runs periodic drift scans on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-edge/internal/service"
)

// Scheduler manages the scheduled drift scan job
type Scheduler struct {
	cron        *cron.Cron
	scanSvc     *service.DriftScanService
	scanTimeout time.Duration
	logger      *logrus.Logger
	mu          sync.RWMutex
	isRunning   bool
	jobIDs      []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(scanSvc *service.DriftScanService, scanTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		scanSvc:     scanSvc,
		scanTimeout: scanTimeout,
		logger:      logger,
		jobIDs:      make([]cron.EntryID, 0),
	}
}

// ScheduleDriftScan schedules the periodic drift scan
func (s *Scheduler) ScheduleDriftScan(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
		defer cancel()

		if _, err := s.scanSvc.RunScan(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled drift scan failed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add drift scan job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled drift scan job")

	return nil
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler started")
}

// Stop halts job scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
