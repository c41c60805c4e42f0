package telemetry

import "errors"

// Sentinel kinds for normalization failures. All of them exclude the run.
var (
	ErrNoTelemetry    = errors.New("run has no telemetry")
	ErrMultiTarget    = errors.New("run targets more than one monster")
	ErrFrameCollision = errors.New("raw frames collide after elapsed transform")
	ErrUnknownPolicy  = errors.New("unknown collision policy")
)
