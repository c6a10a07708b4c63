// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Keys are flat and snake_case so env vars map onto them directly.
// - Provide New(ctx) to build a Config with defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"regexp"
	"runtime"

	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/domain/normalize"
	"github.com/okian/scout/internal/domain/season"
	"github.com/okian/scout/internal/domain/universe"
	"github.com/okian/scout/pkg/metrics"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Season labels the scraped table, e.g. "2023-2024".
	Season string `koanf:"season"`

	// SourceName prefixes scrape artifacts and staging tables.
	SourceName string `koanf:"source_name"`

	// RawRoot holds the CSV exports.
	RawRoot string `koanf:"raw_root"`

	// HTMLPath is the saved statistics page to scrape.
	HTMLPath string `koanf:"html_path"`

	// ProcessedRoot receives Parquet artifacts.
	ProcessedRoot string `koanf:"processed_root"`

	// WarehouseDriver is sqlite or postgres.
	WarehouseDriver string `koanf:"warehouse_driver"`

	// WarehouseDSN is a file path for sqlite or a connection string for postgres.
	WarehouseDSN string `koanf:"warehouse_dsn"`

	// NumericColumns is the coercion allow-list applied to scraped tables.
	NumericColumns []string `koanf:"numeric_columns"`

	// ParseWorkers bounds concurrent region parsing.
	ParseWorkers int `koanf:"parse_workers"`

	// Universe eligibility.
	MinMinutes          int      `koanf:"min_minutes"`
	MinAge              int      `koanf:"min_age"`
	MaxAge              int      `koanf:"max_age"`
	PositionKeywords    []string `koanf:"position_keywords"`
	SubPositionKeywords []string `koanf:"sub_position_keywords"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxUniverseLimit caps GET /universe?limit.
	MaxUniverseLimit int `koanf:"max_universe_limit"`

	// Metrics collection and naming.
	MetricsEnabled   bool      `koanf:"metrics_enabled"`
	MetricsNamespace string    `koanf:"metrics_namespace"`
	MetricsSubsystem string    `koanf:"metrics_subsystem"`
	MetricsBuckets   []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	c := universe.New()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Season:              "2023-2024",
		SourceName:          "fbref_standard",
		RawRoot:             "data/raw/transfermarkt",
		HTMLPath:            "data/raw/fbref/standard_stats.html",
		ProcessedRoot:       "data/processed",
		WarehouseDriver:     warehouse.DriverSQLite,
		WarehouseDSN:        "data/warehouse/scouting.db",
		NumericColumns:      normalize.DefaultNumericColumns(),
		ParseWorkers:        runtime.NumCPU(),
		MinMinutes:          c.MinMinutes,
		MinAge:              c.MinAge,
		MaxAge:              c.MaxAge,
		PositionKeywords:    c.PositionKeywords,
		SubPositionKeywords: c.SubPositionKeywords,
		Addr:                ":9080",
		MaxUniverseLimit:    500,
		MetricsEnabled:      true,
		MetricsNamespace:    "scout",
		MetricsSubsystem:    "warehouse",
		MetricsBuckets:      []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}
}

// MetricsOptions returns the metrics manager settings. Every collector
// carries the source name as a constant label.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(c.MetricsEnabled),
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithSubsystem(c.MetricsSubsystem),
		metrics.WithHistogramBuckets(c.MetricsBuckets),
		metrics.WithCustomLabels(map[string]string{"source": c.SourceName}),
	}
}

// Criteria returns the universe eligibility rules.
func (c *Config) Criteria() universe.Criteria {
	return universe.New(
		universe.WithMinMinutes(c.MinMinutes),
		universe.WithAgeRange(c.MinAge, c.MaxAge),
		universe.WithPositionKeywords(c.PositionKeywords),
		universe.WithSubPositionKeywords(c.SubPositionKeywords),
	)
}

// Validate checks the values a command depends on.
func (c *Config) Validate() error {
	if _, _, err := season.Parse(c.Season); err != nil {
		return fmt.Errorf("%w: season: %w", ErrInvalidConfig, err)
	}
	if !warehouse.ValidIdentifier(c.SourceName) {
		return fmt.Errorf("%w: source_name %q must be a lowercase identifier", ErrInvalidConfig, c.SourceName)
	}
	switch c.WarehouseDriver {
	case warehouse.DriverSQLite, warehouse.DriverPostgres:
	default:
		return fmt.Errorf("%w: warehouse_driver %q", ErrInvalidConfig, c.WarehouseDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.WarehouseDSN == "" {
		return fmt.Errorf("%w: warehouse_dsn must not be empty", ErrInvalidConfig)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxUniverseLimit <= 0 {
		return fmt.Errorf("%w: max_universe_limit must be positive", ErrInvalidConfig)
	}
	if !metricName.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q", ErrInvalidConfig, c.MetricsNamespace)
	}
	if c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_subsystem %q", ErrInvalidConfig, c.MetricsSubsystem)
	}
	if len(c.MetricsBuckets) == 0 {
		return fmt.Errorf("%w: metrics_buckets_ms must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	crit := universe.Criteria{
		MinMinutes:          c.MinMinutes,
		MinAge:              c.MinAge,
		MaxAge:              c.MaxAge,
		PositionKeywords:    c.PositionKeywords,
		SubPositionKeywords: c.SubPositionKeywords,
	}
	if err := crit.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
