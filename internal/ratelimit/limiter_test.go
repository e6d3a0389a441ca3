package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var base = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestLimiter(t *testing.T, opts ...Option) *Limiter {
	t.Helper()
	l, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestLimiter_AdmitsUpToLimitThenRejects(t *testing.T) {
	l := newTestLimiter(t)

	for i := 0; i < DefaultLimit; i++ {
		if !l.Allow("203.0.113.7", base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("submission %d: expected admit", i+1)
		}
	}
	if l.Allow("203.0.113.7", base.Add(5*time.Second)) {
		t.Fatal("6th submission within the window should be rejected")
	}
}

// Any run of calls spread over less than one window admits at most N.
func TestLimiter_NeverAdmitsMoreThanLimitInAnyWindow(t *testing.T) {
	l := newTestLimiter(t)

	var admitted []time.Time
	// One attempt every 7 minutes for 10 hours.
	for i := 0; i < 86; i++ {
		now := base.Add(time.Duration(i) * 7 * time.Minute)
		if l.Allow("k", now) {
			admitted = append(admitted, now)
		}
	}

	for i := range admitted {
		count := 0
		for _, ts := range admitted[i:] {
			if ts.Sub(admitted[i]) < time.Hour {
				count++
			}
		}
		if count > DefaultLimit {
			t.Fatalf("window starting %v admitted %d submissions", admitted[i], count)
		}
	}
	if len(admitted) == 0 {
		t.Fatal("expected some admissions")
	}
}

func TestLimiter_AgesOutAfterWindow(t *testing.T) {
	l := newTestLimiter(t)

	for i := 0; i < DefaultLimit; i++ {
		l.Allow("k", base.Add(time.Duration(i)*time.Minute))
	}
	if l.Allow("k", base.Add(30*time.Minute)) {
		t.Fatal("expected reject while all five are inside the window")
	}

	// 61 minutes after the first submission the first one has aged out.
	if !l.Allow("k", base.Add(61*time.Minute)) {
		t.Fatal("expected admit once the oldest submission left the window")
	}
}

func TestLimiter_RejectedAttemptIsNotRecorded(t *testing.T) {
	l := newTestLimiter(t)

	for i := 0; i < DefaultLimit; i++ {
		l.Allow("k", base.Add(time.Duration(i)*time.Minute))
	}
	if l.Allow("k", base.Add(10*time.Minute)) {
		t.Fatal("expected reject")
	}

	// Only the submission at base has aged out. Had the rejected attempt at
	// +10m been recorded, the window would still be full.
	now := base.Add(61 * time.Minute)
	if !l.Allow("k", now) {
		t.Fatal("rejected attempt must not occupy a slot")
	}
	if l.Allow("k", now) {
		t.Fatal("expected reject after the freed slot was used")
	}
}

func TestLimiter_TimestampAtCutoffIsRetained(t *testing.T) {
	l := newTestLimiter(t, WithLimit(1))

	if !l.Allow("k", base) {
		t.Fatal("expected first admit")
	}
	// base is exactly now-window: not strictly older, so it still counts.
	if l.Allow("k", base.Add(time.Hour)) {
		t.Fatal("timestamp exactly at the window edge should still count")
	}
	if !l.Allow("k", base.Add(time.Hour+time.Nanosecond)) {
		t.Fatal("expected admit once the timestamp is strictly older than the window")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := newTestLimiter(t, WithLimit(2))

	steps := []struct {
		key  string
		want bool
	}{
		{"a", true},
		{"b", true},
		{"a", true},
		{"b", true},
		{"a", false},
		{"c", true},
		{"b", false},
		{"c", true},
		{"c", false},
	}
	for i, s := range steps {
		got := l.Allow(s.key, base.Add(time.Duration(i)*time.Second))
		if got != s.want {
			t.Errorf("step %d key %s: want %v, got %v", i, s.key, s.want, got)
		}
	}
}

func TestLimiter_DecideRetryAfter(t *testing.T) {
	l := newTestLimiter(t, WithLimit(2), WithWindow(10*time.Minute))

	l.Allow("k", base)
	l.Allow("k", base.Add(time.Minute))

	d := l.Decide("k", base.Add(4*time.Minute))
	if d.Allowed {
		t.Fatal("expected reject")
	}
	if want := 6*time.Minute + time.Nanosecond; d.RetryAfter != want {
		t.Errorf("RetryAfter: want %v, got %v", want, d.RetryAfter)
	}

	retryAt := base.Add(4 * time.Minute).Add(d.RetryAfter)
	if l.Allow("k", retryAt.Add(-time.Nanosecond)) {
		t.Error("retry just before RetryAfter should be rejected")
	}
	if !l.Allow("k", retryAt) {
		t.Error("retry after exactly RetryAfter should be admitted")
	}

	if d := l.Decide("other", base); !d.Allowed || d.RetryAfter != 0 {
		t.Errorf("expected admit with zero RetryAfter, got %+v", d)
	}
}

func TestLimiter_ConcurrentSameKeyNeverExceedsLimit(t *testing.T) {
	l := newTestLimiter(t)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if l.Allow("shared", base.Add(time.Duration(i)*time.Millisecond)) {
				admitted.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != DefaultLimit {
		t.Fatalf("expected exactly %d admits under contention, got %d", DefaultLimit, got)
	}
}

func TestLimiter_ConcurrentDistinctKeys(t *testing.T) {
	l := newTestLimiter(t)

	var wg sync.WaitGroup
	results := make([]int, 20)
	for k := 0; k < len(results); k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			key := fmt.Sprintf("10.0.0.%d", k)
			for i := 0; i < 10; i++ {
				if l.Allow(key, base) {
					results[k]++
				}
			}
		}(k)
	}
	wg.Wait()

	for k, n := range results {
		if n != DefaultLimit {
			t.Errorf("key %d: expected %d admits, got %d", k, DefaultLimit, n)
		}
	}
}

func TestLimiter_SweepForgetsIdleKeys(t *testing.T) {
	l := newTestLimiter(t)

	l.Allow("idle", base)
	l.Allow("active", base.Add(50*time.Minute))

	removed := l.Sweep(base.Add(90 * time.Minute))
	if removed != 1 {
		t.Fatalf("expected 1 key removed, got %d", removed)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 key left, got %d", l.Len())
	}

	// The active key keeps its history.
	for i := 0; i < DefaultLimit-1; i++ {
		if !l.Allow("active", base.Add(91*time.Minute)) {
			t.Fatalf("admit %d: expected admit", i+1)
		}
	}
	if l.Allow("active", base.Add(91*time.Minute)) {
		t.Fatal("sweep must not drop live timestamps")
	}
}

func TestLimiter_MaxKeysEvictsLeastRecentlyChecked(t *testing.T) {
	l := newTestLimiter(t, WithLimit(1), WithMaxKeys(3))

	l.Allow("a", base)
	l.Allow("b", base)
	l.Allow("c", base)
	// Touch a so b becomes the least recently checked.
	l.Allow("a", base)
	l.Allow("d", base)

	if l.Len() != 3 {
		t.Fatalf("expected 3 tracked keys, got %d", l.Len())
	}
	if l.Allow("a", base) {
		t.Error("a should still be tracked and full")
	}
	if !l.Allow("b", base) {
		t.Error("b should have been evicted and start fresh")
	}
}

func TestLimiter_MaxKeysDropsIdleKeysBeforeLiveOnes(t *testing.T) {
	l := newTestLimiter(t, WithLimit(1), WithWindow(time.Hour), WithMaxKeys(3))

	l.Allow("full", base.Add(30*time.Minute))
	l.Allow("idle1", base)
	l.Allow("idle2", base)

	// At base+61m both idle keys have expired; full is least recently
	// checked but still live.
	now := base.Add(61 * time.Minute)
	if !l.Allow("new", now) {
		t.Fatal("new key should be admitted")
	}
	if l.Len() != 2 {
		t.Errorf("expected idle keys to be swept, got %d tracked", l.Len())
	}
	if l.Allow("full", now) {
		t.Error("live key must keep its history when idle keys can be dropped")
	}
}

func TestLimiter_RunSweepsUntilCancelled(t *testing.T) {
	l := newTestLimiter(t, WithSweepInterval(5*time.Millisecond))
	l.Allow("stale", time.Now().Add(-2*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for l.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not remove the stale key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	cases := map[string][]Option{
		"zero limit":    {WithLimit(0)},
		"zero window":   {WithWindow(0)},
		"negative keys": {WithMaxKeys(-1)},
	}
	for name, opts := range cases {
		if _, err := New(opts...); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
