package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/questpace/internal/domain/dedupe"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/pkg/metrics"
)

// MemStore is an in-memory Store. Runs are kept sorted by ID so cohort order
// is stable across queries.
type MemStore struct {
	mu     sync.RWMutex
	byID   map[model.RunID]model.Run
	ids    []model.RunID // ascending
	dedupe dedupe.Deduper
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		byID:   make(map[model.RunID]model.Run),
		dedupe: dedupe.NewInMemoryDeduper(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) Replace(ctx context.Context, runs []model.Run) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreCanceled, err)
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dedupe.Reset(ctx)
	byID := make(map[model.RunID]model.Run, len(runs))
	ids := make([]model.RunID, 0, len(runs))
	var dups []model.RunID
	for _, r := range runs {
		if s.dedupe.SeenAndRecord(ctx, r.ID) {
			dups = append(dups, r.ID)
			metrics.RecordDuplicateRun()
			continue
		}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.byID = byID
	s.ids = ids

	metrics.UpdateRunsStored(len(ids))
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)

	if len(dups) > 0 {
		return len(ids), fmt.Errorf("%w: %d skipped, first %d", ErrDuplicateRun, len(dups), dups[0])
	}
	return len(ids), nil
}

func (s *MemStore) Put(ctx context.Context, run model.Run) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreCanceled, err)
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dedupe.SeenAndRecord(ctx, run.ID) {
		metrics.RecordDuplicateRun()
		return fmt.Errorf("%w: %d", ErrDuplicateRun, run.ID)
	}
	s.byID[run.ID] = run
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= run.ID })
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = run.ID

	metrics.UpdateRunsStored(len(s.ids))
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *MemStore) Query(ctx context.Context, f model.Filter, limit int) (model.Cohort, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreCanceled, err)
	}
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Walk newest first so the limit keeps the most recent runs, then flip.
	var out model.Cohort
	for i := len(s.ids) - 1; i >= 0; i-- {
		r := s.byID[s.ids[i]]
		if !f.Match(r) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id model.RunID) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return model.Run{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r, nil
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
