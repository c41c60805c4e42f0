// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/outlier"
	"github.com/okian/questpace/internal/domain/telemetry"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CohortFile is a YAML file of runs loaded at startup. Empty means the
	// repository starts empty.
	CohortFile string `koanf:"cohort_file"`

	// WatchCohort reloads CohortFile whenever it changes on disk.
	WatchCohort bool `koanf:"watch_cohort"`

	// OutlierDropFraction is the largest single-step HP drop, as a fraction
	// of the starting HP, accepted without suspicion.
	OutlierDropFraction float64 `koanf:"outlier_drop_fraction"`

	// OutlierUnmark reinstates a suppressed reading when HP rises again.
	OutlierUnmark bool `koanf:"outlier_unmark"`

	// CollisionPolicy resolves raw frames that map to the same elapsed frame:
	// last_write_wins, first_write_wins or reject.
	CollisionPolicy string `koanf:"collision_policy"`

	// DefaultMode is the checkpoint plan used when a request names none.
	DefaultMode string `koanf:"default_mode"`

	// MaxCohortRuns caps the runs pulled into one analysis. 0 means no cap.
	MaxCohortRuns int `koanf:"max_cohort_runs"`

	// ChartWidth and ChartHeight size the rendered pace chart in pixels.
	ChartWidth  int `koanf:"chart_width"`
	ChartHeight int `koanf:"chart_height"`

	// WSEnabled serves the websocket report stream.
	WSEnabled bool `koanf:"ws_enabled"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		WatchCohort:         true,
		OutlierDropFraction: outlier.DefaultDropFraction,
		OutlierUnmark:       true,
		CollisionPolicy:     telemetry.LastWriteWins.String(),
		DefaultMode:         checkpoint.Fine.Name(),
		MaxCohortRuns:       10_000,
		ChartWidth:          1024,
		ChartHeight:         512,
		WSEnabled:           true,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.OutlierDropFraction <= 0 || c.OutlierDropFraction > 1:
		return fmt.Errorf("%w: outlier_drop_fraction must be in (0, 1], got %v", ErrInvalidConfig, c.OutlierDropFraction)
	case c.MaxCohortRuns < 0:
		return fmt.Errorf("%w: max_cohort_runs must not be negative", ErrInvalidConfig)
	case c.ChartWidth <= 0 || c.ChartHeight <= 0:
		return fmt.Errorf("%w: chart size must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Collision(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Plan(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Collision parses CollisionPolicy.
func (c *Config) Collision() (telemetry.CollisionPolicy, error) {
	return telemetry.ParseCollisionPolicy(c.CollisionPolicy)
}

// Plan parses DefaultMode.
func (c *Config) Plan() (checkpoint.Plan, error) {
	return checkpoint.ParseMode(c.DefaultMode)
}

// OutlierOptions converts the outlier settings into filter options.
func (c *Config) OutlierOptions() []outlier.Option {
	return []outlier.Option{
		outlier.WithDropFraction(c.OutlierDropFraction),
		outlier.WithUnmark(c.OutlierUnmark),
	}
}
