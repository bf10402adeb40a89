package auth

import "errors"

// Sentinel kinds for auth errors.
var (
	ErrHashPassword   = errors.New("password hashing failed")
	ErrSessionExpired = errors.New("session expired")
	ErrNoSession      = errors.New("session not found")
)
