package analysis

import (
	"errors"

	"github.com/okian/questpace/internal/domain/outlier"
	"github.com/okian/questpace/internal/domain/split"
	"github.com/okian/questpace/internal/domain/telemetry"
)

// Reason classifies why a run was left out.
type Reason string

const (
	ReasonNoTelemetry    Reason = "no_telemetry"
	ReasonMultiTarget    Reason = "multi_target"
	ReasonFrameCollision Reason = "frame_collision"
	ReasonZeroStartHP    Reason = "zero_start_hp"
	ReasonAllOutliers    Reason = "all_outliers"
	ReasonTooFewSamples  Reason = "too_few_samples"
	ReasonIntegrityFault Reason = "integrity_fault"
	ReasonUnknown        Reason = "unknown"
)

// Reasons lists every known reason, for metric label pre-registration.
var Reasons = []Reason{
	ReasonNoTelemetry,
	ReasonMultiTarget,
	ReasonFrameCollision,
	ReasonZeroStartHP,
	ReasonAllOutliers,
	ReasonTooFewSamples,
	ReasonIntegrityFault,
}

// ReasonFor maps a stage error to its Reason.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, telemetry.ErrNoTelemetry):
		return ReasonNoTelemetry
	case errors.Is(err, telemetry.ErrMultiTarget):
		return ReasonMultiTarget
	case errors.Is(err, telemetry.ErrFrameCollision):
		return ReasonFrameCollision
	case errors.Is(err, outlier.ErrZeroStartHP):
		return ReasonZeroStartHP
	case errors.Is(err, outlier.ErrAllOutliers):
		return ReasonAllOutliers
	case errors.Is(err, outlier.ErrTooFewSamples):
		return ReasonTooFewSamples
	case errors.Is(err, split.ErrNegativeSplit):
		return ReasonIntegrityFault
	default:
		return ReasonUnknown
	}
}
