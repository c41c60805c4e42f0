package outlier

import "errors"

// Sentinel kinds for runs the filter cannot use.
var (
	ErrZeroStartHP   = errors.New("first HP reading is zero")
	ErrAllOutliers   = errors.New("every reading after the first was an outlier")
	ErrTooFewSamples = errors.New("series has fewer than two usable readings")
)
