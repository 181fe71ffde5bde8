package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharp-edge/internal/alert"
	"github.com/yourusername/sharp-edge/internal/config"
	"github.com/yourusername/sharp-edge/internal/database"
	"github.com/yourusername/sharp-edge/internal/drift"
	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/models"
	"github.com/yourusername/sharp-edge/internal/odds"
	"github.com/yourusername/sharp-edge/internal/registry"
	"github.com/yourusername/sharp-edge/internal/repository"
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
	reg        *registry.Registry
	gate       *alert.Gate
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	registerCmd.Flags().String("model-type", "gradient_boosting", "Model type identifier")
	registerCmd.Flags().String("hyperparameters", "{}", "Hyperparameters as JSON")
	registerCmd.Flags().Int("training-days", 30, "Length of the training window in days")

	edgeCmd.Flags().Float64("prob", 0, "Model win probability (0..1)")
	edgeCmd.Flags().Int("odds", 0, "Market price in American odds")
	edgeCmd.Flags().Float64("kelly", 0, "Kelly fraction override (defaults to configured value)")
	edgeCmd.MarkFlagRequired("prob")
	edgeCmd.MarkFlagRequired("odds")

	predictCmd.Flags().Float64("prob", 0, "Model win probability (0..1)")
	predictCmd.Flags().Int("odds", 0, "Market price in American odds")
	predictCmd.Flags().String("features", "", "Feature vector as JSON")
	predictCmd.MarkFlagRequired("prob")
	predictCmd.MarkFlagRequired("odds")

	ackCmd.Flags().String("user", "", "User acknowledging the alert")
	ackCmd.MarkFlagRequired("user")

	alertsCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(statusCmd, listCmd, registerCmd, activateCmd, validateCmd, failCmd, deprecateCmd, scanCmd, edgeCmd, predictCmd, alertsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "model-admin",
	Short: "Administer model versions, drift verdicts, and alerts",
	Long:  `Operator CLI for the model registry: register and promote model versions, inspect drift verdicts, and acknowledge alerts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
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
	appLogger = logger.NewLogger("warn")

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	reg = registry.NewRegistry(repos.ModelVersion, cfg.Registry.ActiveCacheTTL(), appLogger)
	gate = alert.NewGate(repos.Alert, cfg.Monitoring.CritPSIThreshold, nil, appLogger)

	return nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active model version and alert backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		active, err := reg.GetActive(ctx)
		if errors.Is(err, models.ErrNotFound) {
			fmt.Println("Active Model: none")
		} else if err != nil {
			return err
		} else {
			fmt.Println("Active Model:")
			printModelVersion(active)
		}

		count, err := gate.UnackedCritCount(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("\nUnacknowledged critical alerts (24h): %d\n", count)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		history, err := reg.GetHistory(ctx, cfg.Registry.HistoryLimit)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-20s %-12s %s\n", "VERSION", "TYPE", "STATUS", "CREATED")
		for _, mv := range history {
			fmt.Printf("%-20s %-20s %-12s %s\n", mv.Version, mv.ModelType, mv.Status, mv.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <version>",
	Short: "Register a new model version in training state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		modelType, _ := cmd.Flags().GetString("model-type")
		hyperparameters, _ := cmd.Flags().GetString("hyperparameters")
		trainingDays, _ := cmd.Flags().GetInt("training-days")

		if !json.Valid([]byte(hyperparameters)) {
			return fmt.Errorf("hyperparameters must be valid JSON")
		}

		now := time.Now().UTC()
		mv, err := reg.Register(ctx, args[0], modelType, json.RawMessage(hyperparameters), now.AddDate(0, 0, -trainingDays), now)
		if err != nil {
			return err
		}

		fmt.Printf("Registered %s (%s)\n", mv.Version, mv.ID)
		return nil
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate <version>",
	Short: "Promote a model version to active, deprecating the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		mv, err := reg.Activate(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Activated %s at %s\n", mv.Version, mv.ActivatedAt.Format(time.RFC3339))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <version>",
	Short: "Move a training model version into validation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := reg.MarkValidating(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as validating\n", args[0])
		return nil
	},
}

var failCmd = &cobra.Command{
	Use:   "fail <version>",
	Short: "Mark a model version as failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := reg.MarkFailed(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as failed\n", args[0])
		return nil
	},
}

var deprecateCmd = &cobra.Command{
	Use:   "deprecate <version>",
	Short: "Deprecate the given active model version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		if err := reg.Deprecate(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deprecated %s\n", args[0])
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <version>",
	Short: "Evaluate drift for a model version and print the verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		monitor := drift.NewMonitor(repos.DriftMetric, cfg.Monitoring.MetricWindowSize, appLogger)
		verdict, err := monitor.Evaluate(ctx, args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(verdict.View(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Compute edge, EV, and Kelly stake for a probability and market price",
	RunE: func(cmd *cobra.Command, args []string) error {
		prob, _ := cmd.Flags().GetFloat64("prob")
		marketOdds, _ := cmd.Flags().GetInt("odds")
		kelly, _ := cmd.Flags().GetFloat64("kelly")

		if kelly == 0 {
			kelly = cfg.Edge.KellyFraction
		}

		result := odds.ComputeEdge(prob, marketOdds, kelly)
		fmt.Printf("Implied Probability: %.6f\n", result.ImpliedProbability)
		fmt.Printf("Decimal Odds:        %.4f\n", result.DecimalOdds)
		fmt.Printf("Edge:                %+.6f\n", result.Edge)
		fmt.Printf("Expected Value:      %+.6f\n", result.ExpectedValue)
		fmt.Printf("Kelly Stake:         %.6f\n", result.KellyStake)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <game-id>",
	Short: "Compute and store a prediction snapshot for a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		gameID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid game id: %w", err)
		}

		prob, _ := cmd.Flags().GetFloat64("prob")
		marketOdds, _ := cmd.Flags().GetInt("odds")
		features, _ := cmd.Flags().GetString("features")

		var featureJSON json.RawMessage
		if features != "" {
			if !json.Valid([]byte(features)) {
				return fmt.Errorf("features must be valid JSON")
			}
			featureJSON = json.RawMessage(features)
		}

		edgeSvc := service.NewEdgeService(reg, repos.Prediction, cfg.Edge.KellyFraction, cfg.Edge.MinEdgeThreshold, appLogger)
		prediction, err := edgeSvc.Evaluate(ctx, gameID, prob, marketOdds, featureJSON)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(prediction.View(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		alerts, err := gate.Recent(ctx, cfg.Alerting.RecentLimit)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-8s %-16s %-6s %s\n", "ID", "SEVERITY", "TYPE", "ACKED", "TITLE")
		for _, a := range alerts {
			fmt.Printf("%-36s %-8s %-16s %-6s %s\n", a.ID, a.Severity, a.Type, strconv.FormatBool(a.IsAcknowledged()), a.Title)
		}
		return nil
	},
}

var ackCmd = &cobra.Command{
	Use:   "ack <alert-id>",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid alert id: %w", err)
		}
		user, _ := cmd.Flags().GetString("user")

		a, err := gate.Acknowledge(ctx, id, user)
		if err != nil {
			return err
		}

		fmt.Printf("Alert %s acknowledged by %s at %s\n", a.ID, *a.AcknowledgedBy, a.AcknowledgedAt.Format(time.RFC3339))
		return nil
	},
}

func printModelVersion(mv *models.ModelVersion) {
	fmt.Printf("  Version:    %s\n", mv.Version)
	fmt.Printf("  Type:       %s\n", mv.ModelType)
	fmt.Printf("  Status:     %s\n", mv.Status)
	if mv.ActivatedAt != nil {
		fmt.Printf("  Activated:  %s\n", mv.ActivatedAt.Format(time.RFC3339))
	}
	fmt.Printf("  Created:    %s\n", mv.CreatedAt.Format(time.RFC3339))
}
