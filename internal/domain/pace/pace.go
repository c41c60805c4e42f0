// Package pace builds per-run projection curves that anchor a run's real
// splits and fill the rest with cohort medians.
package pace

import (
	"github.com/okian/questpace/internal/domain/aggregate"
	"github.com/okian/questpace/internal/domain/model"
)

// Point is one checkpoint of a curve.
type Point struct {
	// Elapsed is the run's real cumulative time to this checkpoint. Invalid
	// when the run never reached it or an earlier split is missing.
	Elapsed model.NullFrame `json:"elapsed"`
	// Projected is the estimated total clear time given what the run has done
	// through this checkpoint and the cohort median for everything after.
	Projected model.Frame `json:"projected"`
}

// Curve is one run's projection.
type Curve struct {
	RunID  model.RunID `json:"run_id"`
	Points []Point     `json:"points"`
	Best   bool        `json:"best"`
}

// Final returns the last projected value, or 0 for an empty curve.
func (c Curve) Final() model.Frame {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[len(c.Points)-1].Projected
}

// Project returns one curve per entry, in entry order. For checkpoint i:
//
//	Projected[i] = sum_{j<=i}(split[j] if valid else median[j]) + sum_{j>i} median[j]
//
// Exactly one curve is marked Best: the first one whose final projection is
// the smallest.
func Project(entries []aggregate.Entry, median aggregate.Set) []Curve {
	n := len(median.Values)
	if len(entries) == 0 {
		return nil
	}

	// suffix[i] = sum of median[j] for j >= i.
	suffix := make([]model.Frame, n+1)
	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + median.Values[i]
	}

	curves := make([]Curve, len(entries))
	best := -1
	for k, e := range entries {
		c := Curve{RunID: e.RunID, Points: make([]Point, n)}
		var anchored, actual model.Frame
		chained := true
		for i := 0; i < n; i++ {
			var s model.NullFrame
			if i < len(e.Splits) {
				s = e.Splits[i]
			}
			if s.Valid {
				anchored += s.Frames
			} else {
				anchored += median.Values[i]
			}
			c.Points[i].Projected = anchored + suffix[i+1]

			if chained && s.Valid {
				actual += s.Frames
				c.Points[i].Elapsed = model.Frames(actual)
			} else {
				chained = false
			}
		}
		curves[k] = c
		if best < 0 || c.Final() < curves[best].Final() {
			best = k
		}
	}
	curves[best].Best = true
	return curves
}
