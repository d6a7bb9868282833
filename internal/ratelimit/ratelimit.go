// Package ratelimit implements admission control for user-triggered alerts.
//
// The limiter is a fixed-window counter: the first request of a window
// records its start time and each further request within the window
// increments a counter until the maximum is reached. Counters reset only
// when a request arrives after the window has elapsed, so a burst of up to
// twice the maximum is possible across a window boundary. That is an
// accepted approximation, not a bug.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter tracks one fixed window per user id. State is process-local and
// in-memory only; entries persist for the life of the process, bounded by
// the number of distinct users seen.
type Limiter struct {
	mu      sync.Mutex
	windows map[int64]*window

	maxRequests int
	windowSize  time.Duration

	now func() time.Time
}

// New creates a limiter admitting at most maxRequests per windowSize per user.
func New(maxRequests int, windowSize time.Duration) *Limiter {
	return &Limiter{
		windows:     make(map[int64]*window),
		maxRequests: maxRequests,
		windowSize:  windowSize,
		now:         time.Now,
	}
}

// Allow reports whether the user may trigger a new alert, counting the
// request against the current window. The check-and-increment is atomic:
// a single lock serializes all admissions. Contention is acceptable for
// the deployment sizes this targets; shard the map if that changes.
func (l *Limiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[userID]
	if !ok {
		l.windows[userID] = &window{count: 1, start: now}
		return true
	}

	if now.Sub(w.start) > l.windowSize {
		w.count = 1
		w.start = now
		return true
	}

	if w.count < l.maxRequests {
		w.count++
		return true
	}

	return false
}

// TimeUntilReset returns how long until the user's current window expires,
// or zero if the user has no window recorded or it has already expired.
func (l *Limiter) TimeUntilReset(userID int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[userID]
	if !ok {
		return 0
	}

	remaining := l.windowSize - l.now().Sub(w.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}
