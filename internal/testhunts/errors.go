package testhunts

import "errors"

// Sentinel kinds for tool errors.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMismatch         = errors.New("report mismatch")
)
