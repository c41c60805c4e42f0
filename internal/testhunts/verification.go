package testhunts

import (
	"fmt"

	"github.com/okian/questpace/internal/domain/types"
)

// compareReports lists every aggregate on which got differs from want.
func compareReports(want, got types.Report) []string {
	var problems []string
	if want.Mode != got.Mode {
		problems = append(problems, fmt.Sprintf("mode: want %s, got %s", want.Mode, got.Mode))
	}
	if want.CohortSize != got.CohortSize {
		problems = append(problems, fmt.Sprintf("cohort size: want %d, got %d", want.CohortSize, got.CohortSize))
	}
	if want.Kept != got.Kept {
		problems = append(problems, fmt.Sprintf("kept runs: want %d, got %d", want.Kept, got.Kept))
	}
	if len(want.Discarded) != len(got.Discarded) {
		problems = append(problems, fmt.Sprintf("discarded runs: want %d, got %d", len(want.Discarded), len(got.Discarded)))
	}
	if want.SumOfBest.Frames != got.SumOfBest.Frames {
		problems = append(problems, fmt.Sprintf("sum of best: want %d, got %d", want.SumOfBest.Frames, got.SumOfBest.Frames))
	}
	if len(want.Checkpoints) != len(got.Checkpoints) {
		return append(problems, fmt.Sprintf("checkpoints: want %d, got %d", len(want.Checkpoints), len(got.Checkpoints)))
	}
	for i, w := range want.Checkpoints {
		g := got.Checkpoints[i]
		switch {
		case w.MedianSplit.Frames != g.MedianSplit.Frames:
			problems = append(problems, fmt.Sprintf("%s median split: want %d, got %d", w.Label, w.MedianSplit.Frames, g.MedianSplit.Frames))
		case w.FastestSplit.Frames != g.FastestSplit.Frames:
			problems = append(problems, fmt.Sprintf("%s fastest split: want %d, got %d", w.Label, w.FastestSplit.Frames, g.FastestSplit.Frames))
		case w.CumulativeMedian.Frames != g.CumulativeMedian.Frames:
			problems = append(problems, fmt.Sprintf("%s cumulative median: want %d, got %d", w.Label, w.CumulativeMedian.Frames, g.CumulativeMedian.Frames))
		case w.Samples != g.Samples:
			problems = append(problems, fmt.Sprintf("%s samples: want %d, got %d", w.Label, w.Samples, g.Samples))
		}
	}
	return problems
}

// checkReport lists properties any report must have regardless of input.
func checkReport(r types.Report) []string {
	var problems []string
	if r.Kept+len(r.Discarded) != r.CohortSize {
		problems = append(problems, fmt.Sprintf("kept %d + discarded %d != cohort %d", r.Kept, len(r.Discarded), r.CohortSize))
	}
	if len(r.Curves) != r.Kept {
		problems = append(problems, fmt.Sprintf("curves %d != kept %d", len(r.Curves), r.Kept))
	}
	if r.Distribution.Count > 0 && r.SumOfBest.Frames > r.Distribution.Min {
		problems = append(problems, fmt.Sprintf("sum of best %d exceeds fastest clear %d", r.SumOfBest.Frames, r.Distribution.Min))
	}

	best := 0
	for _, c := range r.Curves {
		if c.Best {
			best++
		}
	}
	if len(r.Curves) > 0 && best != 1 {
		problems = append(problems, fmt.Sprintf("%d curves marked best", best))
	}
	return problems
}
