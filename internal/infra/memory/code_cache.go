package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CodeLoader resolves a join code against the authoritative store.
type CodeLoader interface {
	LoadGameID(ctx context.Context, code string) (string, error)
}

// CodeCache caches join code lookups with TTL to avoid repeated store hits.
type CodeCache struct {
	loader CodeLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedCode
}

type cachedCode struct {
	gameID    string
	expiresAt time.Time
}

func NewCodeCache(loader CodeLoader, ttl time.Duration) *CodeCache {
	return &CodeCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCode),
	}
}

// WithClock is test-only for controlling expiry.
func (c *CodeCache) WithClock(now func() time.Time) *CodeCache {
	c.clock = now
	return c
}

func (c *CodeCache) GameIDForCode(ctx context.Context, code string) (string, error) {
	if id, ok := c.lookup(code); ok {
		return id, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		if id, ok := c.lookup(code); ok {
			return id, nil
		}
		gameID, err := c.loader.LoadGameID(ctx, code)
		if err != nil {
			return "", err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.cache[code] = cachedCode{gameID: gameID, expiresAt: c.clock().Add(c.ttlWithJitter())}
			c.mu.Unlock()
		}
		return gameID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *CodeCache) Forget(_ context.Context, code string) {
	c.mu.Lock()
	delete(c.cache, code)
	c.mu.Unlock()
}

func (c *CodeCache) lookup(code string) (string, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[code]
	if !ok || !entry.expiresAt.After(now) {
		return "", false
	}
	return entry.gameID, true
}

// ttlWithJitter is called with c.mu held.
func (c *CodeCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
