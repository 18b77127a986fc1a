package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Storage modes for persisted exports
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config holds all configuration for the chart service
type Config struct {
	// Server configuration
	Port        string `env:"PORT,default=8981"`
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=json"`

	// Export storage
	StorageMode     string `env:"STORAGE_MODE,default=local"`
	LocalExportsDir string `env:"LOCAL_EXPORTS_DIR,default=./exports"`
	GCPProjectID    string `env:"GCP_PROJECT_ID"`
	GCSBucket       string `env:"GCS_BUCKET"`

	// Analysis source
	BackendURL   string  `env:"BACKEND_URL,default=http://localhost:8000"`
	RatedPowerKW float64 `env:"RATED_POWER_KW,default=2000"`
	AnalysisFile string  `env:"ANALYSIS_FILE"`
	MockupMode   bool    `env:"MOCKUP_MODE,default=false"`

	// Chart rendering
	MovingAverageWindow int               `env:"MOVING_AVERAGE_WINDOW,default=12"`
	DomainStep          float64           `env:"DOMAIN_STEP,default=50"`
	DomainHeadroom      float64           `env:"DOMAIN_HEADROOM,default=1.15"`
	ChartWidth          int               `env:"CHART_WIDTH,default=960"`
	ChartHeight         int               `env:"CHART_HEIGHT,default=360"`
	SeriesColors        map[string]string `env:"SERIES_COLORS"`
}

// Load loads configuration from environment variables and validates it
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the chart engine cannot work with
func (c *Config) Validate() error {
	var errs []error
	if c.MovingAverageWindow < 1 {
		errs = append(errs, fmt.Errorf("MOVING_AVERAGE_WINDOW must be positive, got %d", c.MovingAverageWindow))
	}
	if c.DomainStep <= 0 {
		errs = append(errs, fmt.Errorf("DOMAIN_STEP must be positive, got %v", c.DomainStep))
	}
	if c.DomainHeadroom < 1 {
		errs = append(errs, fmt.Errorf("DOMAIN_HEADROOM must be at least 1, got %v", c.DomainHeadroom))
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		errs = append(errs, fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight))
	}
	if c.RatedPowerKW <= 0 {
		errs = append(errs, fmt.Errorf("RATED_POWER_KW must be positive, got %v", c.RatedPowerKW))
	}
	switch c.StorageMode {
	case StorageLocal:
	case StorageGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required when STORAGE_MODE=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
