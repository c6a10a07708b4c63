package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Env names.
const (
	EnvPrefix = "SCOUT_"
	EnvConfig = "SCOUT_CONFIG"
)

// listKeys are the keys decoded into []string.
var listKeys = map[string]struct{}{
	"numeric_columns":       {},
	"position_keywords":     {},
	"sub_position_keywords": {},
	"metrics_buckets_ms":    {},
}

// splitList splits a comma-separated env value, dropping blank items.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SCOUT_CONFIG is set
//  3. env (prefix SCOUT_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfig))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file
// layer.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SCOUT_WAREHOUSE_DSN -> warehouse_dsn. Underscores are kept to match the
	// flat koanf tags. List keys take comma-separated values.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Decoding into a non-empty slice overwrites it element-wise, so a short
	// override would keep a tail of defaults.
	for key, field := range map[string]*[]string{
		"numeric_columns":       &cfg.NumericColumns,
		"position_keywords":     &cfg.PositionKeywords,
		"sub_position_keywords": &cfg.SubPositionKeywords,
	} {
		if k.Exists(key) {
			*field = nil
		}
	}
	if k.Exists("metrics_buckets_ms") {
		cfg.MetricsBuckets = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
