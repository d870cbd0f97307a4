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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PYLON_CONFIG is set
//  3. env (prefix PYLON_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PYLON_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PYLON_ADDR, PYLON_QUEUE_SIZE, ...
	// Map env keys like PYLON_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PYLON_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "pylon_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	case c.HomeAdvantage < 0:
		return fmt.Errorf("%w: home_advantage must not be negative", ErrInvalidConfig)
	case c.BaseRating <= 0:
		return fmt.Errorf("%w: base_rating must be positive", ErrInvalidConfig)
	case c.GarbageTimeThreshold < 0:
		return fmt.Errorf("%w: garbage_time_threshold must not be negative", ErrInvalidConfig)
	case c.GarbageQ4Weight < 0 || c.GarbageQ4Weight > 1:
		return fmt.Errorf("%w: garbage_q4_weight must be in [0,1]", ErrInvalidConfig)
	case c.MOVCap < 1:
		return fmt.Errorf("%w: mov_cap must be at least 1", ErrInvalidConfig)
	}
	return nil
}
