package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharp-edge/internal/alert"
	"github.com/yourusername/sharp-edge/internal/config"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/drift"
	"github.com/yourusername/sharp-edge/internal/health"
	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/metrics"
	"github.com/yourusername/sharp-edge/internal/registry"
	"github.com/yourusername/sharp-edge/internal/repository"
	"github.com/yourusername/sharp-edge/internal/scheduler"
	"github.com/yourusername/sharp-edge/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLogger  *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "driftd",
	Short: "Model drift monitoring daemon",
	Long:  `Runs scheduled drift scans against the active model version and raises alerts when feature distributions shift.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if err := config.ApplySecrets(ctx, cfg); err != nil {
		return fmt.Errorf("failed to apply secrets: %w", err)
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLogger = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func runDaemon() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer db.Close()

	metrics.InitRegistry()

	appLogger.WithFields(logrus.Fields{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
	}).Info("Starting drift monitoring daemon")

	reg := registry.NewRegistry(repos.ModelVersion, cfg.Registry.ActiveCacheTTL(), appLogger)
	monitor := drift.NewMonitor(repos.DriftMetric, cfg.Monitoring.MetricWindowSize, appLogger)

	var notifier alert.Notifier
	if cfg.Alerting.WebhookURL != "" {
		notifier = alert.NewWebhookNotifier(alert.WebhookConfig{
			URL:           cfg.Alerting.WebhookURL,
			Timeout:       cfg.Alerting.WebhookTimeout(),
			MaxRetries:    cfg.Alerting.WebhookMaxRetries,
			RatePerSecond: cfg.Alerting.RatePerSecond,
		}, appLogger)
	}
	gate := alert.NewGate(repos.Alert, cfg.Monitoring.CritPSIThreshold, notifier, appLogger)

	scanSvc := service.NewDriftScanService(reg, monitor, gate, appLogger)
	sched := scheduler.NewScheduler(scanSvc, cfg.Monitoring.ScanTimeout(), appLogger)
	if err := sched.ScheduleDriftScan(cfg.Monitoring.ScanCron); err != nil {
		appLogger.WithError(err).Fatal("Failed to schedule drift scan")
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLogger,
		DB:          db,
		Scheduler:   sched,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to start health server")
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer()
	}

	sched.Start()
	healthServer.SetReady(true)

	// Run one scan on startup so a fresh deployment gets an immediate verdict
	// instead of waiting for the first cron tick.
	go func() {
		scanCtx, scanCancel := context.WithTimeout(ctx, cfg.Monitoring.ScanTimeout())
		defer scanCancel()
		if _, err := scanSvc.RunScan(scanCtx); err != nil {
			appLogger.WithError(err).Error("Initial drift scan failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	appLogger.WithField("signal", sig.String()).Info("Shutting down")
	healthServer.SetReady(false)
	sched.Stop()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.WithError(err).Error("Metrics server shutdown error")
		}
	}

	appLogger.Info("Drift monitoring daemon stopped")
}

func startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logrus.Fields{
			"port": cfg.Metrics.Port,
			"path": cfg.Metrics.Path,
		}).Info("Metrics server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Error("Metrics server error")
		}
	}()

	return srv
}
