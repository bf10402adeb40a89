package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrLoadState = errors.New("load state failed")
	ErrSaveState = errors.New("save state failed")
	ErrNotFound  = errors.New("not found")
)
