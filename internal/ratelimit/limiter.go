// Package ratelimit implements the per-client sliding window that gates
// contact form submissions.
//
// A Limiter keeps, for every client key, the timestamps of its admitted
// submissions inside the trailing window. Entries are pruned whenever the key
// is checked again, by Sweep, and by the LRU cap on distinct keys, so memory
// stays bounded even for keys that are never seen twice.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultLimit         = 5
	DefaultWindow        = time.Hour
	DefaultMaxKeys       = 10000
	DefaultSweepInterval = 5 * time.Minute
)

// Decision is the outcome of a single check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the oldest retained submission has left
	// the window, i.e. the earliest wait after which a retry is admitted.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter admits at most limit submissions per key within the trailing window.
// All methods are safe for concurrent use.
type Limiter struct {
	limit         int
	window        time.Duration
	maxKeys       int
	sweepInterval time.Duration

	mu      sync.Mutex
	clients *simplelru.LRU[string, *clientWindow]
}

type clientWindow struct {
	timestamps []time.Time
}

// prune drops timestamps strictly older than cutoff, keeping order.
func (cw *clientWindow) prune(cutoff time.Time) {
	valid := cw.timestamps[:0]
	for _, ts := range cw.timestamps {
		if !ts.Before(cutoff) {
			valid = append(valid, ts)
		}
	}
	cw.timestamps = valid
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLimit sets the number of submissions admitted per window.
func WithLimit(n int) Option {
	return func(l *Limiter) { l.limit = n }
}

// WithWindow sets the trailing window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

// WithMaxKeys caps the number of distinct keys tracked at once. When the cap
// is reached keys with no live timestamps are dropped first; if every key is
// still live the least recently checked one is dropped and regains its quota.
func WithMaxKeys(n int) Option {
	return func(l *Limiter) { l.maxKeys = n }
}

// WithSweepInterval sets how often Run sweeps idle keys.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.sweepInterval = d }
}

// New creates a Limiter. Without options it admits 5 submissions per hour.
func New(opts ...Option) (*Limiter, error) {
	l := &Limiter{
		limit:         DefaultLimit,
		window:        DefaultWindow,
		maxKeys:       DefaultMaxKeys,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(l)
	}

	switch {
	case l.limit < 1:
		return nil, errors.New("ratelimit: limit must be at least 1")
	case l.window <= 0:
		return nil, errors.New("ratelimit: window must be positive")
	case l.maxKeys < 1:
		return nil, errors.New("ratelimit: max keys must be at least 1")
	}

	clients, err := simplelru.NewLRU[string, *clientWindow](l.maxKeys, nil)
	if err != nil {
		return nil, err
	}
	l.clients = clients
	return l, nil
}

// Limit returns the number of submissions admitted per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the trailing window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Allow reports whether key may submit at now, recording the submission when
// it may. A rejected attempt is not recorded.
func (l *Limiter) Allow(key string, now time.Time) bool {
	return l.Decide(key, now).Allowed
}

// Decide is Allow with the retry hint needed for a Retry-After header.
func (l *Limiter) Decide(key string, now time.Time) Decision {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	cw, ok := l.clients.Get(key)
	if !ok {
		if l.clients.Len() >= l.maxKeys {
			l.sweepLocked(cutoff)
		}
		cw = &clientWindow{}
		l.clients.Add(key, cw)
	}

	cw.prune(cutoff)

	if len(cw.timestamps) >= l.limit {
		// oldest is still retained at exactly oldest+window.
		oldest := cw.timestamps[0]
		return Decision{
			Allowed:    false,
			RetryAfter: oldest.Add(l.window).Sub(now) + time.Nanosecond,
		}
	}

	cw.timestamps = append(cw.timestamps, now)
	return Decision{Allowed: true}
}

// Sweep prunes every tracked key against now and forgets keys left with no
// timestamps. It returns the number of keys removed.
func (l *Limiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(cutoff)
}

func (l *Limiter) sweepLocked(cutoff time.Time) int {
	removed := 0
	for _, key := range l.clients.Keys() {
		cw, ok := l.clients.Peek(key)
		if !ok {
			continue
		}
		cw.prune(cutoff)
		if len(cw.timestamps) == 0 {
			l.clients.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of keys currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clients.Len()
}

// Run sweeps idle keys every sweep interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	if l.sweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}
