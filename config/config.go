package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the immutable process configuration, built once at startup from
// the environment and passed into every component. Core logic never reads
// ambient environment state.
type Config struct {
	Email    string
	Password string

	RelistInterval time.Duration
	Headless       bool
	AdDataFile     string
	MaxRetries     int
	RandomDelayMin time.Duration
	RandomDelayMax time.Duration

	SnapshotDir string
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// DefaultConfig returns the documented defaults. Credentials have no default.
func DefaultConfig() *Config {
	return &Config{
		RelistInterval: 24 * time.Hour,
		Headless:       true,
		AdDataFile:     "ad_data.json",
		MaxRetries:     3,
		RandomDelayMin: 0,
		RandomDelayMax: 30 * time.Minute,
		SnapshotDir:    "logs",
		MetricsAddr:    "",
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// FromEnv builds a Config from environment variables on top of the defaults.
// Call godotenv.Load before this if a .env file should be honoured.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Email = os.Getenv("GUMTREE_EMAIL")
	cfg.Password = os.Getenv("GUMTREE_PASSWORD")

	if hours, ok, err := envInt("RELIST_INTERVAL_HOURS"); err != nil {
		return nil, err
	} else if ok {
		cfg.RelistInterval = time.Duration(hours) * time.Hour
	}

	if v, ok, err := envBool("HEADLESS"); err != nil {
		return nil, err
	} else if ok {
		cfg.Headless = v
	}

	if v, ok := os.LookupEnv("AD_DATA_FILE"); ok {
		cfg.AdDataFile = v
	}

	if v, ok, err := envInt("MAX_RETRIES"); err != nil {
		return nil, err
	} else if ok {
		cfg.MaxRetries = v
	}

	if minutes, ok, err := envInt("RANDOM_DELAY_MIN"); err != nil {
		return nil, err
	} else if ok {
		cfg.RandomDelayMin = time.Duration(minutes) * time.Minute
	}

	if minutes, ok, err := envInt("RANDOM_DELAY_MAX"); err != nil {
		return nil, err
	} else if ok {
		cfg.RandomDelayMax = time.Duration(minutes) * time.Minute
	}

	if v, ok := os.LookupEnv("SNAPSHOT_DIR"); ok {
		cfg.SnapshotDir = v
	}
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent. Missing credentials
// is the one fatal-to-process condition: without them no run can ever work.
func (c *Config) Validate() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("GUMTREE_EMAIL and GUMTREE_PASSWORD must be set")
	}
	if c.RelistInterval <= 0 {
		return fmt.Errorf("relist interval must be positive")
	}
	if c.AdDataFile == "" {
		return fmt.Errorf("ad data file cannot be empty")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.RandomDelayMin < 0 {
		return fmt.Errorf("random delay min cannot be negative")
	}
	if c.RandomDelayMax < c.RandomDelayMin {
		return fmt.Errorf("random delay max (%s) cannot be below min (%s)", c.RandomDelayMax, c.RandomDelayMin)
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot directory cannot be empty")
	}
	return nil
}

func envInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}

func envBool(key string) (bool, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}
