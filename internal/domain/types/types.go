// Package types contains the report shapes served to API clients.
package types

import (
	"github.com/okian/questpace/internal/domain/aggregate"
	"github.com/okian/questpace/internal/domain/analysis"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/pace"
)

// Duration is a frame count with its value in seconds alongside.
type Duration struct {
	Frames  model.Frame `json:"frames"`
	Seconds float64     `json:"seconds"`
}

// NewDuration wraps f.
func NewDuration(f model.Frame) Duration {
	return Duration{Frames: f, Seconds: f.Seconds()}
}

// Checkpoint holds the cohort statistics at one checkpoint.
type Checkpoint struct {
	Label            string       `json:"label"`
	Percent          int          `json:"percent"`
	MedianSplit      Duration     `json:"median_split"`
	FastestSplit     Duration     `json:"fastest_split"`
	CumulativeMedian Duration     `json:"cumulative_median"`
	Samples          int          `json:"samples"`
	FastestRun       *model.RunID `json:"fastest_run,omitempty"`
}

// Report is the response of a pace query.
type Report struct {
	Mode         string                 `json:"mode"`
	Filter       model.Filter           `json:"filter"`
	CohortSize   int                    `json:"cohort_size"`
	Kept         int                    `json:"kept"`
	Checkpoints  []Checkpoint           `json:"checkpoints"`
	SumOfBest    Duration               `json:"sum_of_best"`
	Distribution aggregate.Distribution `json:"distribution"`
	Curves       []pace.Curve           `json:"curves"`
	Discarded    []analysis.Discard     `json:"discarded"`
	Faults       []model.RunID          `json:"faults"`
}

// BestCurve returns the curve marked best, if any.
func (r Report) BestCurve() (pace.Curve, bool) {
	for _, c := range r.Curves {
		if c.Best {
			return c, true
		}
	}
	return pace.Curve{}, false
}

// NewReport flattens an analysis result into a Report.
func NewReport(res analysis.Result, f model.Filter, cohortSize int) Report {
	labels := res.Plan.Labels()
	cps := make([]Checkpoint, res.Plan.Len())
	for i := range cps {
		cps[i] = Checkpoint{
			Label:            labels[i],
			Percent:          res.Plan.Percent(i),
			MedianSplit:      NewDuration(res.Median.Values[i]),
			FastestSplit:     NewDuration(res.Fastest.Values[i]),
			CumulativeMedian: NewDuration(res.CumulativeMedian.Values[i]),
			Samples:          res.Median.Samples[i],
		}
		if id, ok := res.FastestRun[i]; ok {
			cps[i].FastestRun = &id
		}
	}

	faults := make([]model.RunID, 0, len(res.Faults))
	for _, ft := range res.Faults {
		faults = append(faults, ft.RunID)
	}

	curves := res.Curves
	if curves == nil {
		curves = []pace.Curve{}
	}
	discarded := res.Discarded
	if discarded == nil {
		discarded = []analysis.Discard{}
	}

	return Report{
		Mode:         res.Plan.Name(),
		Filter:       f,
		CohortSize:   cohortSize,
		Kept:         len(res.Runs),
		Checkpoints:  cps,
		SumOfBest:    NewDuration(res.SumOfBest),
		Distribution: res.Distribution,
		Curves:       curves,
		Discarded:    discarded,
		Faults:       faults,
	}
}

// RunReport is the response of a single-run breakdown.
type RunReport struct {
	Run       RunInfo            `json:"run"`
	Mode      string             `json:"mode"`
	Breakdown analysis.Breakdown `json:"breakdown"`
	Total     *Duration          `json:"total,omitempty"`
	Reason    analysis.Reason    `json:"reason,omitempty"`
	Detail    string             `json:"detail,omitempty"`
}

// RunInfo is a run's attributes without its telemetry.
type RunInfo struct {
	ID        model.RunID `json:"id"`
	QuestID   int         `json:"quest_id"`
	Weapon    string      `json:"weapon"`
	Category  string      `json:"category"`
	RunBuffs  uint64      `json:"run_buffs"`
	PartySize int         `json:"party_size"`
	Frames    int         `json:"frames"`
}

// NewRunInfo strips telemetry from r.
func NewRunInfo(r model.Run) RunInfo {
	return RunInfo{
		ID:        r.ID,
		QuestID:   r.QuestID,
		Weapon:    r.Weapon,
		Category:  r.Category,
		RunBuffs:  r.RunBuffs,
		PartySize: r.PartySize,
		Frames:    len(r.Telemetry),
	}
}
