// Package dedupe tracks run IDs that were already ingested.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/questpace/internal/domain/model"
)

// Deduper records seen run IDs so a run is stored at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id model.RunID) bool

	// Reset forgets every id.
	Reset(ctx context.Context)
}

// seenSet is an unbounded set of run IDs. A cohort is reloaded as a whole, so
// the set never outlives one run set and needs no eviction.
type seenSet struct {
	mu   sync.Mutex
	seen map[model.RunID]struct{}
}

// NewInMemoryDeduper creates an empty in-memory deduper.
func NewInMemoryDeduper() Deduper {
	return &seenSet{seen: make(map[model.RunID]struct{})}
}

func (d *seenSet) SeenAndRecord(_ context.Context, id model.RunID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *seenSet) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[model.RunID]struct{})
}
