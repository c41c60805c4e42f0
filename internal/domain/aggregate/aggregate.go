// Package aggregate computes cohort statistics over per-run split sets.
package aggregate

import (
	"sort"

	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/split"
)

// Entry is one run's contribution to an aggregate.
type Entry struct {
	RunID  model.RunID
	Splits split.Set
}

// Set is a per-checkpoint aggregate. Values[i] is 0 when Samples[i] is 0, so
// "no data" and "measured zero" are told apart by Samples.
type Set struct {
	Values  []model.Frame `json:"values"`
	Samples []int         `json:"samples"`
}

func newSet(n int) Set {
	return Set{Values: make([]model.Frame, n), Samples: make([]int, n)}
}

// Sum adds up all values.
func (s Set) Sum() model.Frame {
	var total model.Frame
	for _, v := range s.Values {
		total += v
	}
	return total
}

// Empty reports whether no checkpoint had any data.
func (s Set) Empty() bool {
	for _, n := range s.Samples {
		if n > 0 {
			return false
		}
	}
	return true
}

// Result holds every cohort statistic derived from split sets.
type Result struct {
	// Median split per checkpoint.
	Median Set
	// Fastest (minimum) split per checkpoint.
	Fastest Set
	// CumulativeMedian is the median time to reach each checkpoint, over runs
	// that reached it without gaps.
	CumulativeMedian Set
	// FastestRun maps a checkpoint index to the run with the lowest cumulative
	// time to it. First seen wins ties.
	FastestRun map[int]model.RunID
	// SumOfBest adds the per-checkpoint minimum splits. It is a bound, not
	// necessarily a time any single run achieved.
	SumOfBest model.Frame
	// Runs is the number of entries aggregated.
	Runs int
}

// Compute aggregates entries over n checkpoints. Splits beyond an entry's
// length count as invalid.
func Compute(n int, entries []Entry) Result {
	splits := make([][]model.Frame, n)
	cumulative := make([][]model.Frame, n)
	best := make([]model.Frame, n)
	fastestRun := make(map[int]model.RunID)

	for _, e := range entries {
		var running model.Frame
		chained := true
		for i := 0; i < n; i++ {
			var v model.NullFrame
			if i < len(e.Splits) {
				v = e.Splits[i]
			}
			if !v.Valid {
				chained = false
				continue
			}
			splits[i] = append(splits[i], v.Frames)
			if !chained {
				continue
			}
			running += v.Frames
			cumulative[i] = append(cumulative[i], running)
			if _, seen := fastestRun[i]; !seen || running < best[i] {
				best[i] = running
				fastestRun[i] = e.RunID
			}
		}
	}

	res := Result{
		Median:           newSet(n),
		Fastest:          newSet(n),
		CumulativeMedian: newSet(n),
		FastestRun:       fastestRun,
		Runs:             len(entries),
	}
	for i := 0; i < n; i++ {
		res.Median.Values[i] = Median(splits[i])
		res.Median.Samples[i] = len(splits[i])
		res.Fastest.Values[i] = Min(splits[i])
		res.Fastest.Samples[i] = len(splits[i])
		res.CumulativeMedian.Values[i] = Median(cumulative[i])
		res.CumulativeMedian.Samples[i] = len(cumulative[i])
	}
	res.SumOfBest = res.Fastest.Sum()
	return res
}

// Median returns the middle value of values, or the floor of the mean of the
// two middle values for an even count. Empty input yields 0. The argument is
// not reordered.
func Median(values []model.Frame) model.Frame {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]model.Frame(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return floorDiv(sorted[mid-1]+sorted[mid], 2)
	}
	return sorted[mid]
}

// Min returns the smallest value, or 0 for empty input.
func Min(values []model.Frame) model.Frame {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func floorDiv(a, b model.Frame) model.Frame {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
