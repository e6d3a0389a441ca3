package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Event describes one limiter decision.
type Event struct {
	Key     string
	Allowed bool
	At      time.Time
}

// StatsStore persists decision counters. Callers treat Record as best-effort:
// an error is logged and never changes the decision it describes.
type StatsStore interface {
	Record(ctx context.Context, ev Event) error
}

// Counters holds admitted and rejected totals.
type Counters struct {
	Allowed int64
	Denied  int64
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore keeps counters in process memory. It has no expiry and is
// meant for development and tests.
type MemoryStatsStore struct {
	mu    sync.Mutex
	total Counters
	byKey map[string]Counters
}

// NewMemoryStatsStore creates an empty MemoryStatsStore.
func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byKey: make(map[string]Counters)}
}

var _ StatsStore = (*MemoryStatsStore)(nil)

func (s *MemoryStatsStore) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)
	c := s.byKey[ev.Key]
	c.add(ev.Allowed)
	s.byKey[ev.Key] = c
	return nil
}

// Total returns the counters across all keys.
func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// ByKey returns a copy of the per-key counters.
func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
