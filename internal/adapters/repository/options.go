package repository

import "github.com/okian/questpace/internal/domain/dedupe"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithDeduper replaces the deduper used to reject repeated run IDs.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *MemStore) {
		if d != nil {
			s.dedupe = d
		}
	}
}
