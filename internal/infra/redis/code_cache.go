package redis

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CodeLoader resolves a join code against the authoritative store.
type CodeLoader interface {
	LoadGameID(ctx context.Context, code string) (string, error)
}

// CodeCache shares join code lookups across instances and falls back to a loader on miss.
// Entries are stored as: SET joincode:{code} {gameID} EX ttl
type CodeCache struct {
	client *redis.Client
	loader CodeLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCodeCache(client *redis.Client, loader CodeLoader, ttl time.Duration) *CodeCache {
	return &CodeCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CodeCache) GameIDForCode(ctx context.Context, code string) (string, error) {
	key := c.key(code)
	if id, err := c.client.Get(ctx, key).Result(); err == nil {
		return id, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		id, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] get %s: %v", key, err)
		}

		gameID, err := c.loader.LoadGameID(ctx, code)
		if err != nil {
			return "", err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if err := c.client.Set(ctx, key, gameID, ttl).Err(); err != nil {
				log.Printf("[cache] set %s: %v", key, err)
			}
		}
		return gameID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Forget evicts a code. Failures only delay eviction until the TTL passes.
func (c *CodeCache) Forget(ctx context.Context, code string) {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		log.Printf("[cache] forget %s: %v", code, err)
	}
}

func (c *CodeCache) key(code string) string {
	return "joincode:" + code
}

func (c *CodeCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
