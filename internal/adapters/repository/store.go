// Package repository holds historical runs and selects cohorts from them.
package repository

import (
	"context"

	"github.com/okian/questpace/internal/domain/model"
)

// Store provides read/write access to historical runs.
type Store interface {
	// Replace swaps the whole run set. Runs whose ID repeats an earlier run in
	// the input are skipped and reported through an error wrapping
	// ErrDuplicateRun; the rest are still stored. Returns the stored count.
	Replace(ctx context.Context, runs []model.Run) (int, error)

	// Put adds one run. Returns ErrDuplicateRun if the ID is already stored.
	Put(ctx context.Context, run model.Run) error

	// Query returns the runs matching f in ascending RunID order. A positive
	// limit keeps only the most recent (highest ID) runs; 0 means no limit.
	Query(ctx context.Context, f model.Filter, limit int) (model.Cohort, error)

	// Get returns one run or ErrNotFound.
	Get(ctx context.Context, id model.RunID) (model.Run, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}
