package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter per key, for single-instance deployments.
type RateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clock:   time.Now,
		windows: make(map[string]*rateWindow),
	}
}

// WithClock is test-only for deterministic windows.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.clock = now
	return l
}

// Allow counts one hit for key. When the limit is exceeded it reports how long until
// the window resets.
func (l *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	if w.count > l.limit {
		return false, w.resetAt.Sub(now), nil
	}
	return true, 0, nil
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
