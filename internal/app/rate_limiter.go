/**
 * @description
 * This file defines the rate limiter used by the PIN gate, plus its in-memory
 * implementation. The limiter keeps a monotonic attempt counter per
 * (client, username) key with a fixed time window; once the window passes the
 * counter resets. The interface lets a single-instance deployment run on the
 * in-memory map while multi-instance deployments swap in the Redis-backed
 * limiter without touching the decision engine.
 *
 * @dependencies
 * - context, sync, time: Standard Go libraries.
 */

package app

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is an atomic check-and-increment attempt counter.
// Allow returns false, with a retry-after hint, once the key has exhausted its
// attempts inside the current window. Blocked calls do not consume attempts.
type RateLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}

type rateLimitEntry struct {
	count int
	reset time.Time
}

// MemoryRateLimiter is the single-process implementation. State is lost on
// restart, which is an accepted weak point of this scheme.
type MemoryRateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	entries     map[string]*rateLimitEntry
	lastCleanup time.Time
}

// NewMemoryRateLimiter creates a limiter allowing `limit` attempts per `window`.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:       limit,
		window:      window,
		entries:     map[string]*rateLimitEntry{},
		lastCleanup: time.Now(),
	}
}

// Allow performs the check-and-increment under a single lock, so concurrent
// calls for the same key observe one consistent counter.
func (l *MemoryRateLimiter) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Opportunistic cleanup of expired entries, at most once per window.
	if now.Sub(l.lastCleanup) >= l.window {
		for k, e := range l.entries {
			if !now.Before(e.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok || !now.Before(e.reset) {
		l.entries[key] = &rateLimitEntry{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}

	if e.count >= l.limit {
		retryAfter := e.reset.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	e.count++
	return true, 0, nil
}
