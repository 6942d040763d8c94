package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store is a keyed cooldown store.
//
// Allow is a single test-and-set: if the key has no entry, or its entry is
// older than window, the current time is recorded and the call is allowed.
// The slot is consumed at that moment, before any downstream work, so a
// failed dispatch still counts against the cooldown.
//
// Timestamps only move forward; a denied call never rewrites the entry.
type Store interface {
	Allow(ctx context.Context, key string, window time.Duration) (ok bool, retryAfter time.Duration, err error)
}

// MemoryStore keeps entries in a process-local map.
//
// Entries grow unbounded for the process lifetime and reset on restart.
// That is accepted for this workload; there is no eviction sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time), clock: time.Now}
}

// NewMemoryStoreWithClock is for tests that need a deterministic clock.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time), clock: clock}
}

func (s *MemoryStore) Allow(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.entries[key]; ok {
		elapsed := now.Sub(last)
		if elapsed < window {
			return false, window - elapsed, nil
		}
	}
	s.entries[key] = now
	return true, 0, nil
}

// Len reports the number of recorded entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
