package resultcache

import (
	"context"
	"sync"
)

const DefaultMaxEntries = 1000

// MemStore is a mutex-guarded map with insertion-order tracking. When the
// entry count exceeds the cap, the oldest half is dropped in one pass; the
// coarse eviction keeps Put at amortized O(1) without per-entry bookkeeping.
type MemStore[T any] struct {
	mu      sync.Mutex
	max     int
	entries map[string]T
	order   []string
}

var _ Store[string] = (*MemStore[string])(nil)

func NewMemStore[T any](maxEntries int) *MemStore[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemStore[T]{
		max:     maxEntries,
		entries: make(map[string]T),
	}
}

func (s *MemStore[T]) Get(ctx context.Context, fingerprint string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[fingerprint]
	return v, ok, nil
}

func (s *MemStore[T]) Put(ctx context.Context, fingerprint string, val T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[fingerprint]; !exists {
		s.order = append(s.order, fingerprint)
	}
	s.entries[fingerprint] = val
	if len(s.entries) > s.max {
		s.evictOldestHalf()
	}
	return nil
}

func (s *MemStore[T]) Purge(ctx context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fingerprint)
	return nil
}

// Len reports the current entry count.
func (s *MemStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldestHalf drops the older half of insertions. Purged fingerprints may
// linger in the order slice; they are skipped here and compacted away.
func (s *MemStore[T]) evictOldestHalf() {
	drop := len(s.entries) / 2
	kept := s.order[:0]
	for i, fp := range s.order {
		if _, live := s.entries[fp]; !live {
			continue
		}
		if drop > 0 {
			delete(s.entries, fp)
			drop--
			continue
		}
		kept = append(kept, s.order[i])
	}
	s.order = append([]string(nil), kept...)
}
