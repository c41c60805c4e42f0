// Package analysis composes the pace pipeline: normalize, filter outliers,
// sample checkpoints, derive splits, aggregate and project. Run is a pure
// function of its inputs and holds no state between calls.
package analysis

import (
	"fmt"

	"github.com/okian/questpace/internal/domain/aggregate"
	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/outlier"
	"github.com/okian/questpace/internal/domain/pace"
	"github.com/okian/questpace/internal/domain/split"
	"github.com/okian/questpace/internal/domain/telemetry"
)

// Options parameterize one analysis.
type Options struct {
	// Plan selects the checkpoints. The zero value means checkpoint.Fine.
	Plan      checkpoint.Plan
	Collision telemetry.CollisionPolicy
	Outlier   []outlier.Option
	// Filter, when set, drops runs that do not match even if the caller
	// already queried with it.
	Filter *model.Filter
}

func (o Options) withDefaults() Options {
	if o.Plan.Len() == 0 {
		o.Plan = checkpoint.Fine
	}
	return o
}

// RunResult is the per-run output kept for runs that made it through.
type RunResult struct {
	RunID      model.RunID      `json:"run_id"`
	MaxHP      model.HP         `json:"max_hp"`
	Crossings  []model.Crossing `json:"crossings"`
	Splits     split.Set        `json:"splits"`
	Suppressed int              `json:"suppressed"`
	Unmarked   int              `json:"unmarked"`
	Rebounds   int              `json:"rebounds"`
}

// Discard records a run left out of the aggregates.
type Discard struct {
	RunID  model.RunID `json:"run_id"`
	Reason Reason      `json:"reason"`
	Detail string      `json:"detail"`
	Err    error       `json:"-"`
}

// Fault records a run whose splits broke an ordering invariant. Faulted runs
// are also listed in Discarded.
type Fault struct {
	RunID model.RunID `json:"run_id"`
	Err   error       `json:"-"`
}

// Result is everything derived from one cohort under one plan.
type Result struct {
	Plan             checkpoint.Plan
	Median           aggregate.Set
	Fastest          aggregate.Set
	CumulativeMedian aggregate.Set
	FastestRun       map[int]model.RunID
	SumOfBest        model.Frame
	Curves           []pace.Curve
	Runs             []RunResult
	Discarded        []Discard
	Faults           []Fault
	Distribution     aggregate.Distribution
}

// Suppressed totals the suppressed readings over kept runs.
func (r Result) Suppressed() int {
	n := 0
	for _, rr := range r.Runs {
		n += rr.Suppressed
	}
	return n
}

// Unmarked totals the reinstated readings over kept runs.
func (r Result) Unmarked() int {
	n := 0
	for _, rr := range r.Runs {
		n += rr.Unmarked
	}
	return n
}

// Run analyzes cohort. Runs are processed in cohort order, which decides
// first-seen ties in FastestRun and Best.
func Run(cohort model.Cohort, opts Options) Result {
	opts = opts.withDefaults()
	res := Result{Plan: opts.Plan}

	entries := make([]aggregate.Entry, 0, len(cohort))
	for _, run := range cohort {
		if opts.Filter != nil && !opts.Filter.Match(run) {
			continue
		}
		b, err := Inspect(run, opts)
		if err != nil {
			reason := ReasonFor(err)
			res.Discarded = append(res.Discarded, Discard{
				RunID:  run.ID,
				Reason: reason,
				Detail: err.Error(),
				Err:    err,
			})
			if reason == ReasonIntegrityFault {
				res.Faults = append(res.Faults, Fault{RunID: run.ID, Err: err})
			}
			continue
		}
		res.Runs = append(res.Runs, b.summary())
		entries = append(entries, aggregate.Entry{RunID: run.ID, Splits: b.Splits})
	}

	agg := aggregate.Compute(opts.Plan.Len(), entries)
	res.Median = agg.Median
	res.Fastest = agg.Fastest
	res.CumulativeMedian = agg.CumulativeMedian
	res.FastestRun = agg.FastestRun
	res.SumOfBest = agg.SumOfBest
	res.Curves = pace.Project(entries, agg.Median)
	res.Distribution = aggregate.ClearTimes(entries)
	return res
}

// Breakdown is every intermediate stage output for a single run.
type Breakdown struct {
	RunID      model.RunID      `json:"run_id"`
	Normalized model.Series     `json:"normalized"`
	Filtered   outlier.Result   `json:"filtered"`
	Crossings  []model.Crossing `json:"crossings"`
	Splits     split.Set        `json:"splits"`
}

func (b Breakdown) summary() RunResult {
	return RunResult{
		RunID:      b.RunID,
		MaxHP:      b.Filtered.MaxHP,
		Crossings:  b.Crossings,
		Splits:     b.Splits,
		Suppressed: b.Filtered.Suppressed,
		Unmarked:   b.Filtered.Unmarked,
		Rebounds:   b.Filtered.Rebounds,
	}
}

// Inspect runs the per-run stages on one run. On error the breakdown holds
// whatever stages completed; an integrity error comes with a complete one.
func Inspect(run model.Run, opts Options) (Breakdown, error) {
	opts = opts.withDefaults()
	b := Breakdown{RunID: run.ID}

	series, err := telemetry.Normalize(run.Telemetry, opts.Collision)
	if err != nil {
		return b, fmt.Errorf("normalize run %d: %w", run.ID, err)
	}
	b.Normalized = series

	filtered, err := outlier.Filter(series, opts.Outlier...)
	if err != nil {
		return b, fmt.Errorf("filter run %d: %w", run.ID, err)
	}
	b.Filtered = filtered

	b.Crossings = checkpoint.Sample(filtered.Series, filtered.MaxHP, opts.Plan)
	b.Splits, err = split.Calculate(b.Crossings)
	if err != nil {
		return b, fmt.Errorf("splits for run %d: %w", run.ID, err)
	}
	return b, nil
}
