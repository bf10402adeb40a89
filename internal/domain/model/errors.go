package model

import "errors"

// Sentinel kinds for lifecycle errors.
var (
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)
