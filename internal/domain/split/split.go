// Package split turns cumulative checkpoint crossings into per-segment split
// durations.
package split

import (
	"errors"
	"fmt"

	"github.com/okian/questpace/internal/domain/model"
)

// ErrNegativeSplit marks a split whose end was crossed before its start. It
// can only happen when an upstream ordering invariant was broken.
var ErrNegativeSplit = errors.New("negative split duration")

// IntegrityError reports the first negative split of a set.
type IntegrityError struct {
	Index  int
	Frames model.Frame
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v at checkpoint %d: %d frames", ErrNegativeSplit, e.Index, e.Frames)
}

func (e *IntegrityError) Unwrap() error { return ErrNegativeSplit }

// Set holds one split per checkpoint; its length always equals the plan size.
type Set []model.NullFrame

// Calculate derives splits from crossings:
//
//	split[0] = cp[0]
//	split[i] = cp[i] - cp[i-1]
//
// A split is invalid when either endpoint is. Negative splits are kept as-is
// in the returned set and reported through an *IntegrityError.
func Calculate(crossings []model.Crossing) (Set, error) {
	out := make(Set, len(crossings))
	var fault *IntegrityError
	for i, c := range crossings {
		if !c.Valid {
			continue
		}
		if i == 0 {
			out[i] = model.Frames(c.Elapsed)
		} else {
			prev := crossings[i-1]
			if !prev.Valid {
				continue
			}
			out[i] = model.Frames(c.Elapsed - prev.Elapsed)
		}
		if out[i].Frames < 0 && fault == nil {
			fault = &IntegrityError{Index: i, Frames: out[i].Frames}
		}
	}
	if fault != nil {
		return out, fault
	}
	return out, nil
}

// Cumulative returns the total time through checkpoint i. It is valid only
// when every split up to and including i is valid.
func (s Set) Cumulative(i int) model.NullFrame {
	if i < 0 || i >= len(s) {
		return model.NullFrame{}
	}
	var total model.Frame
	for _, v := range s[:i+1] {
		if !v.Valid {
			return model.NullFrame{}
		}
		total += v.Frames
	}
	return model.Frames(total)
}

// Total returns the cumulative time through the last checkpoint.
func (s Set) Total() model.NullFrame {
	return s.Cumulative(len(s) - 1)
}

// Complete reports whether every split is valid.
func (s Set) Complete() bool {
	return s.Total().Valid
}

// Reached returns the number of leading valid splits.
func (s Set) Reached() int {
	for i, v := range s {
		if !v.Valid {
			return i
		}
	}
	return len(s)
}
