package repository

import (
	"github.com/mahsan/gather/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPath sets the state file path.
func WithPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.path = path
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}
