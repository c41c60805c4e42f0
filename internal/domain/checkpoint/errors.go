package checkpoint

import "errors"

// Sentinel kinds for plan construction.
var (
	ErrInvalidPlan = errors.New("invalid checkpoint plan")
	ErrUnknownMode = errors.New("unknown checkpoint mode")
)
