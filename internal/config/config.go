// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"time"
)

// Default configuration values.
const (
	defaultAddr             = ":9080"
	defaultStatePath        = "data/state.json"
	defaultAutosaveInterval = 30 * time.Second
	defaultSessionTTL       = 24 * time.Hour
	defaultMaxSeats         = 10_000
	defaultMaxBulkInvites   = 1_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StatePath is the JSON state file holding the persistent aggregate.
	StatePath string `koanf:"state_path"`

	// AutosaveIntervalS sets how often the state file is rewritten, in seconds.
	AutosaveIntervalS int `koanf:"autosave_interval_s"`

	// SessionTTLHours sets the lifetime of login cookie sessions.
	SessionTTLHours int `koanf:"session_ttl_hours"`

	// MaxSeatsPerSession caps the seat count accepted by session CRUD.
	MaxSeatsPerSession int `koanf:"max_seats_per_session"`

	// MaxBulkInvites caps the number of invitation codes accepted per upload.
	MaxBulkInvites int `koanf:"max_bulk_invites"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               defaultAddr,
		StatePath:          defaultStatePath,
		AutosaveIntervalS:  int(defaultAutosaveInterval / time.Second),
		SessionTTLHours:    int(defaultSessionTTL / time.Hour),
		MaxSeatsPerSession: defaultMaxSeats,
		MaxBulkInvites:     defaultMaxBulkInvites,
	}
}

// AutosaveInterval returns the autosave interval as a duration.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveIntervalS) * time.Second
}

// SessionTTL returns the cookie session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}
