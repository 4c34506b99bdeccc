package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GUMTREE_EMAIL", "user@example.com")
	t.Setenv("GUMTREE_PASSWORD", "secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setCredentials(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", cfg.Email)
	assert.Equal(t, 24*time.Hour, cfg.RelistInterval)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "ad_data.json", cfg.AdDataFile)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.RandomDelayMin)
	assert.Equal(t, 30*time.Minute, cfg.RandomDelayMax)
	assert.Equal(t, "logs", cfg.SnapshotDir)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("RELIST_INTERVAL_HOURS", "6")
	t.Setenv("HEADLESS", "false")
	t.Setenv("AD_DATA_FILE", "my_ad.json")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RANDOM_DELAY_MIN", "2")
	t.Setenv("RANDOM_DELAY_MAX", "8")
	t.Setenv("SNAPSHOT_DIR", "diag")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.RelistInterval)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "my_ad.json", cfg.AdDataFile)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.RandomDelayMin)
	assert.Equal(t, 8*time.Minute, cfg.RandomDelayMax)
	assert.Equal(t, "diag", cfg.SnapshotDir)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("GUMTREE_EMAIL", "")
	t.Setenv("GUMTREE_PASSWORD", "")

	cfg, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUMTREE_EMAIL")
	assert.Nil(t, cfg)
}

func TestFromEnvInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric interval", "RELIST_INTERVAL_HOURS", "daily"},
		{"non-boolean headless", "HEADLESS", "yes please"},
		{"non-numeric retries", "MAX_RETRIES", "many"},
		{"non-numeric delay", "RANDOM_DELAY_MAX", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing credentials",
			mutate:  func(cfg *Config) { cfg.Email = "" },
			wantErr: "GUMTREE_EMAIL",
		},
		{
			name:    "zero interval",
			mutate:  func(cfg *Config) { cfg.RelistInterval = 0 },
			wantErr: "relist interval",
		},
		{
			name:    "empty ad data file",
			mutate:  func(cfg *Config) { cfg.AdDataFile = "" },
			wantErr: "ad data file",
		},
		{
			name:    "zero retries",
			mutate:  func(cfg *Config) { cfg.MaxRetries = 0 },
			wantErr: "max retries",
		},
		{
			name: "delay max below min",
			mutate: func(cfg *Config) {
				cfg.RandomDelayMin = 10 * time.Minute
				cfg.RandomDelayMax = 5 * time.Minute
			},
			wantErr: "random delay max",
		},
		{
			name:    "empty snapshot dir",
			mutate:  func(cfg *Config) { cfg.SnapshotDir = "" },
			wantErr: "snapshot directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Email = "user@example.com"
			cfg.Password = "secret"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
