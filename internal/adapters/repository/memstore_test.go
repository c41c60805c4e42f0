package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/questpace/internal/domain/model"
)

func run(id model.RunID, quest int, weapon string) model.Run {
	return model.Run{ID: id, QuestID: quest, Weapon: weapon, PartySize: 1}
}

func TestMemStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	for _, id := range []model.RunID{5, 1, 3} {
		if err := store.Put(ctx, run(id, 1, "lance")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	got, err := store.Get(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 3 {
		t.Errorf("expected run 3, got %d", got.ID)
	}

	if _, err := store.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	cohort, err := store.Query(ctx, model.Filter{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := cohort.IDs()
	want := []model.RunID{1, 3, 5}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
		}
	}
}

func TestMemStore_Duplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	if err := store.Put(ctx, run(1, 1, "lance")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(ctx, run(1, 2, "bow")); !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("expected ErrDuplicateRun, got %v", err)
	}
	if got, _ := store.Get(ctx, 1); got.QuestID != 1 {
		t.Errorf("duplicate overwrote the stored run")
	}

	n, err := store.Replace(ctx, []model.Run{run(7, 1, "lance"), run(8, 1, "bow"), run(7, 2, "bow")})
	if !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("expected ErrDuplicateRun, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 stored, got %d", n)
	}
	if _, err := store.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected replace to drop run 1, got %v", err)
	}
	if got, _ := store.Get(ctx, 7); got.QuestID != 1 {
		t.Errorf("expected the first run 7 to be kept, got quest %d", got.QuestID)
	}

	// IDs from before the replace are free again.
	if err := store.Put(ctx, run(1, 1, "lance")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMemStore_Query(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	runs := []model.Run{
		run(1, 1, "lance"),
		run(2, 1, "bow"),
		run(3, 2, "lance"),
		run(4, 1, "lance"),
		run(5, 1, "lance"),
	}
	if _, err := store.Replace(ctx, runs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		filter model.Filter
		limit  int
		want   []model.RunID
	}{
		{"all", model.Filter{}, 0, []model.RunID{1, 2, 3, 4, 5}},
		{"quest", model.Filter{QuestID: 1}, 0, []model.RunID{1, 2, 4, 5}},
		{"quest and weapon", model.Filter{QuestID: 1, Weapon: "lance"}, 0, []model.RunID{1, 4, 5}},
		{"limit keeps newest", model.Filter{QuestID: 1, Weapon: "lance"}, 2, []model.RunID{4, 5}},
		{"no match", model.Filter{QuestID: 9}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cohort, err := store.Query(ctx, tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids := cohort.IDs()
			if len(ids) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, ids)
				}
			}
		})
	}

	if _, err := store.Query(ctx, model.Filter{}, -1); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Query(cancelled, model.Filter{}, 0); !errors.Is(err, ErrStoreCanceled) {
		t.Errorf("expected ErrStoreCanceled, got %v", err)
	}
}

func TestMemStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = store.Put(ctx, run(model.RunID(base*1000+i), 1, "lance"))
				_, _ = store.Query(ctx, model.Filter{QuestID: 1}, 10)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 200 {
		t.Errorf("expected 200 runs, got %d", count)
	}
	cohort, _ := store.Query(ctx, model.Filter{}, 0)
	for i := 1; i < len(cohort); i++ {
		if cohort[i-1].ID >= cohort[i].ID {
			t.Fatalf("cohort not sorted at %d", i)
		}
	}
}

// countingDeduper rejects the IDs in deny and counts resets.
type countingDeduper struct {
	deny   map[model.RunID]bool
	resets int
}

func (d *countingDeduper) SeenAndRecord(_ context.Context, id model.RunID) bool { return d.deny[id] }
func (d *countingDeduper) Reset(context.Context)                               { d.resets++ }

func TestMemStore_WithDeduper(t *testing.T) {
	ctx := context.Background()
	d := &countingDeduper{deny: map[model.RunID]bool{2: true}}
	store := NewMemStore(WithDeduper(d))

	n, err := store.Replace(ctx, []model.Run{run(1, 1, "bow"), run(2, 1, "bow"), run(3, 1, "bow")})
	if !errors.Is(err, ErrDuplicateRun) {
		t.Fatalf("expected ErrDuplicateRun, got %v", err)
	}
	if n != 2 || d.resets != 1 {
		t.Errorf("expected 2 stored after one reset, got %d stored, %d resets", n, d.resets)
	}
	if err := store.Put(ctx, run(2, 1, "bow")); !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("expected the deduper to refuse run 2, got %v", err)
	}
	if err := store.Put(ctx, run(4, 1, "bow")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}
