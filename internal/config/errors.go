package config

import "errors"

var (
	// ErrInvalidConfig wraps the first setting Validate rejects, such as an
	// unknown default_mode or collision_policy.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading .env, the QUESTPACE_CONFIG file or
	// the QUESTPACE_* environment.
	ErrLoadConfig = errors.New("load config failed")
)
