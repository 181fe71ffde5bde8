// Package config provides configuration management for the Sharp Edge decision core.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Edge       EdgeConfig       `mapstructure:"edge" validate:"required"`
	Registry   RegistryConfig   `mapstructure:"registry" validate:"required"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" validate:"required"`
	Alerting   AlertingConfig   `mapstructure:"alerting" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Health     HealthConfig     `mapstructure:"health" validate:"required"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// EdgeConfig represents edge and stake-sizing configuration
type EdgeConfig struct {
	KellyFraction    float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MinEdgeThreshold float64 `mapstructure:"min_edge_threshold" validate:"gte=0,lte=1"`
}

// RegistryConfig represents model registry configuration
type RegistryConfig struct {
	ActiveCacheTTLSeconds int `mapstructure:"active_cache_ttl_seconds" validate:"required,gt=0"`
	HistoryLimit          int `mapstructure:"history_limit" validate:"required,gt=0"`
}

// MonitoringConfig represents drift monitoring configuration
type MonitoringConfig struct {
	MetricWindowSize    int     `mapstructure:"metric_window_size" validate:"required,gt=0"`
	ScanCron            string  `mapstructure:"scan_cron" validate:"required"`
	CritPSIThreshold    float64 `mapstructure:"crit_psi_threshold" validate:"required,gt=0"`
	ScanTimeoutSeconds  int     `mapstructure:"scan_timeout_seconds" validate:"required,gt=0"`
}

// AlertingConfig represents alert delivery configuration
type AlertingConfig struct {
	WebhookURL            string  `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookTimeoutSeconds int     `mapstructure:"webhook_timeout_seconds" validate:"required,gt=0"`
	WebhookMaxRetries     int     `mapstructure:"webhook_max_retries" validate:"gte=0"`
	RatePerSecond         float64 `mapstructure:"rate_per_second" validate:"required,gt=0"`
	RecentLimit           int     `mapstructure:"recent_limit" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port string `mapstructure:"port" validate:"required"`
}

// SecretsConfig represents the AWS Secrets Manager overlay configuration
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ScanTimeout returns the drift scan timeout as a duration
func (c *MonitoringConfig) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutSeconds) * time.Second
}

// ActiveCacheTTL returns the registry cache TTL as a duration
func (c *RegistryConfig) ActiveCacheTTL() time.Duration {
	return time.Duration(c.ActiveCacheTTLSeconds) * time.Second
}

// WebhookTimeout returns the webhook timeout as a duration
func (c *AlertingConfig) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}
