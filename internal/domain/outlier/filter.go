// Package outlier removes implausible HP readings from a single-target series.
//
// The filter is a single forward pass with one point of lookback. Both knobs
// are heuristics carried over from the recorder that produced the data: a drop
// of more than DefaultDropFraction of the starting HP between two accepted
// readings is treated as a glitch, and a glitch followed by HP climbing above
// the last accepted value is reinstated ("un-marked"). Large legitimate hits
// are filtered too (false positives) and a real glitch followed by a heal is
// reinstated (false negatives); keep both tunable rather than tweaking them
// in place.
package outlier

import (
	"github.com/okian/questpace/internal/domain/model"
)

// DefaultDropFraction is the largest single-step HP drop, as a fraction of the
// starting HP, accepted without suspicion.
const DefaultDropFraction = 0.25

// Option applies a configuration option to the filter.
type Option func(*settings)

type settings struct {
	dropFraction float64
	unmark       bool
}

// WithDropFraction sets the suspicious-drop threshold. Values outside (0, 1]
// are ignored.
func WithDropFraction(f float64) Option {
	return func(s *settings) {
		if f > 0 && f <= 1 {
			s.dropFraction = f
		}
	}
}

// WithUnmark enables or disables reinstating a suppressed reading when HP
// climbs back above the last accepted value. Enabled by default.
func WithUnmark(enabled bool) Option {
	return func(s *settings) {
		s.unmark = enabled
	}
}

// Result is the filtered series plus bookkeeping about what was removed.
type Result struct {
	Series model.Series
	// MaxHP is the first reading, used as the run's HP baseline.
	MaxHP model.HP
	// Suppressed counts readings left out as outliers.
	Suppressed int
	// Unmarked counts suppressed readings that were reinstated.
	Unmarked int
	// Rebounds counts readings dropped for rising above the accepted HP.
	Rebounds int
	// Corrections lists the elapsed frames where an un-mark let HP rise.
	Corrections []model.Frame
}

// Filter runs the outlier pass over in, which must be sorted by elapsed time.
// The input is never modified.
func Filter(in model.Series, opts ...Option) (Result, error) {
	s := settings{dropFraction: DefaultDropFraction, unmark: true}
	for _, opt := range opts {
		opt(&s)
	}

	if len(in) == 0 {
		return Result{}, ErrTooFewSamples
	}
	first := in[0]
	if first.HP <= 0 {
		return Result{MaxHP: first.HP}, ErrZeroStartHP
	}

	res := Result{
		MaxHP:  first.HP,
		Series: make(model.Series, 0, len(in)),
	}
	limit := s.dropFraction * float64(first.HP)

	accepted := model.Point{Elapsed: first.Elapsed, HP: first.HP}
	res.Series = append(res.Series, accepted)

	var (
		pending    model.Point
		hasPending bool
	)
	for _, cur := range in[1:] {
		cur.Synthetic = false
		if hasPending {
			hasPending = false
			if s.unmark && cur.HP > accepted.HP {
				res.Series = append(res.Series, pending)
				if gap := cur.Elapsed - 1; gap > pending.Elapsed {
					res.Series = append(res.Series, model.Point{Elapsed: gap, HP: pending.HP, Synthetic: true})
				}
				res.Series = append(res.Series, cur)
				res.Corrections = append(res.Corrections, cur.Elapsed)
				res.Suppressed--
				res.Unmarked++
				accepted = cur
				continue
			}
		}

		switch {
		case float64(accepted.HP-cur.HP) > limit:
			pending = cur
			hasPending = true
			res.Suppressed++
		case cur.HP > accepted.HP:
			// A rise without a pending glitch is recorder noise; keeping it
			// would break the non-increasing series.
			res.Rebounds++
		default:
			res.Series = append(res.Series, cur)
			accepted = cur
		}
	}

	// One reading has no elapsed span: every checkpoint would be invalid and
	// its curve would be the median curve, which could be marked best.
	if len(res.Series) < 2 {
		if res.Suppressed > 0 {
			return res, ErrAllOutliers
		}
		return res, ErrTooFewSamples
	}
	return res, nil
}
