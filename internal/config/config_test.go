// Package config provides configuration management for the Sharp Edge decision core.
package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigPath = "testdata/valid_config.yaml"

func TestLoadConfigSuccess(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sharp-edge", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 0.25, cfg.Edge.KellyFraction)
	assert.Equal(t, 100, cfg.Monitoring.MetricWindowSize)
	assert.Equal(t, 0.25, cfg.Monitoring.CritPSIThreshold)
}

func TestLoadConfigExpandsEnvironmentPlaceholders(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded_secret_value", cfg.Database.Password)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("testdata/nonexistent_config.yaml")
	assert.Error(t, err)
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("testdata/nonexistent_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 0.25, cfg.Edge.KellyFraction)
	assert.Equal(t, 100, cfg.Monitoring.MetricWindowSize)
	assert.Equal(t, "*/15 * * * *", cfg.Monitoring.ScanCron)
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)

	cfg.App.Environment = "invalid"
	err = Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Environment")
}

func TestValidateRejectsDisabledSSLInProduction(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)

	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "disable"
	err = Validate(cfg)
	assert.Error(t, err)
}

func TestValidateSecretsOverlayRequiresRegion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)

	cfg.Secrets.Enabled = true
	cfg.Secrets.AWSRegion = ""
	err = Validate(cfg)
	assert.Error(t, err)
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}
