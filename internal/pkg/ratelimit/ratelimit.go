package ratelimit

import (
	"sync"
	"time"

	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
)

// RateLimiter is a sliding-window limiter keyed by caller
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// Decision is the outcome of one Take, computed under a single lock
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// New creates a limiter allowing limit requests per window. name labels its
// rejections in the rate-limited counter.
func New(name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		name:   name,
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) Name() string { return rl.name }

func (rl *RateLimiter) Limit() int { return rl.limit }

// Take records a request for key when it fits in the window
func (rl *RateLimiter) Take(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	live := rl.live(key, now)

	d := Decision{Allowed: len(live) < rl.limit}
	if d.Allowed {
		live = append(live, now)
	} else {
		metrics.RateLimited.WithLabelValues(rl.name).Inc()
	}
	rl.hits[key] = live

	d.Remaining = rl.limit - len(live)
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.ResetAt = now
	if len(live) > 0 {
		// appended in order, so the first live hit is the oldest
		d.ResetAt = live[0].Add(rl.window)
	}
	return d
}

// Allow is Take without the details
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Take(key).Allowed
}

// Remaining reports how many requests key may still make in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.limit - len(rl.live(key, rl.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forgets every request of key
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.hits, key)
}

// Cleanup drops keys with no request left in the window
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key := range rl.hits {
		if live := rl.live(key, now); len(live) == 0 {
			delete(rl.hits, key)
		} else {
			rl.hits[key] = live
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// live returns the hits of key still inside the window. Caller holds the lock.
func (rl *RateLimiter) live(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	hits := rl.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
