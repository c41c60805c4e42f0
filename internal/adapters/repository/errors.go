package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("run not found")
	ErrDuplicateRun  = errors.New("duplicate run id")
	ErrInvalidLimit  = errors.New("invalid cohort limit")
	ErrStoreCanceled = errors.New("store operation canceled")
)
