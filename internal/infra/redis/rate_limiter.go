package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter shared by every instance.
// Counters are stored as: INCR ratelimit:{key}:{window} with EXPIRE window
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	clock  func() time.Time
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, clock: time.Now}
}

// WithClock is test-only for deterministic windows.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.clock = now
	return l
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 || l.window <= 0 {
		return true, 0, nil
	}
	now := l.clock()
	start := now.Truncate(l.window)
	redisKey := "ratelimit:" + key + ":" + start.UTC().Format("20060102T150405")

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	if incr.Val() > int64(l.limit) {
		return false, start.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}
