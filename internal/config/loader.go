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

// envPrefix namespaces every environment override, ECGSERVE_ADDR and so on.
const envPrefix = "ECGSERVE_"

// Load resolves the effective configuration. Defaults come first, a
// YAML file named by ECGSERVE_CONFIG overlays them, and ECGSERVE_*
// environment variables outrank both. The result is validated before
// it is returned.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey flattens ECGSERVE_DATA_DIR into the koanf key data_dir,
// keeping underscores so the keys line up with the struct tags.
func envKey(name string) string {
	return strings.TrimPrefix(strings.ToLower(name), "ecgserve_")
}

// validate rejects configurations the server cannot start with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("%w: rate_limit_per_minute must be positive", ErrInvalidConfig)
	}
	if c.ReportRateLimitPerMinute <= 0 {
		return fmt.Errorf("%w: report_rate_limit_per_minute must be positive", ErrInvalidConfig)
	}
	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("%w: audit_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
