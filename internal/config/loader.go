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
//  1. defaults (New())
//  2. file (YAML) if GATHER_CONFIG is set
//  3. env (prefix GATHER_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GATHER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GATHER_ADDR, GATHER_STATE_PATH, ...
	// Map env keys like GATHER_STATE_PATH -> state_path (flat keys),
	// preserving underscores to match the koanf tags on the struct.
	envProvider := env.Provider("GATHER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gather_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.StatePath == "":
		return nil, fmt.Errorf("%w: state_path must not be empty", ErrInvalidConfig)
	case cfg.AutosaveIntervalS <= 0:
		return nil, fmt.Errorf("%w: autosave_interval_s must be positive", ErrInvalidConfig)
	case cfg.SessionTTLHours <= 0:
		return nil, fmt.Errorf("%w: session_ttl_hours must be positive", ErrInvalidConfig)
	case cfg.MaxSeatsPerSession < 1:
		return nil, fmt.Errorf("%w: max_seats_per_session must be at least 1", ErrInvalidConfig)
	}
	return &cfg, nil
}
