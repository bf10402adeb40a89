package service

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps these to statuses.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
)
