package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"party-game-service/internal/domain"
)

func TestCodeCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{codes: map[string]string{"ABC234": "game-1"}}
	cache := NewCodeCache(newClient(mr), loader, time.Minute)

	id, err := cache.GameIDForCode(context.Background(), "ABC234")
	if err != nil || id != "game-1" {
		t.Fatalf("lookup: %v %q", err, id)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if got, _ := mr.Get("joincode:ABC234"); got != "game-1" {
		t.Fatalf("expected cached mapping, got %q", got)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = cache.GameIDForCode(context.Background(), "ABC234")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	cache.Forget(context.Background(), "ABC234")
	if mr.Exists("joincode:ABC234") {
		t.Fatalf("expected key evicted")
	}
}

func TestCodeCacheDoesNotCacheMisses(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{codes: map[string]string{}}
	cache := NewCodeCache(newClient(mr), loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GameIDForCode(context.Background(), "ZZZ999"); !errors.Is(err, domain.ErrJoinCodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("misses must reach the loader, calls=%d", loader.calls)
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2026, 10, 16, 12, 0, 10, 0, time.UTC)
	limiter := NewRateLimiter(newClient(mr), 3, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, "user-1")
		if err != nil || !ok {
			t.Fatalf("hit %d should pass: ok=%v err=%v", i, ok, err)
		}
	}
	ok, retry, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("fourth hit should be blocked")
	}
	if retry != 50*time.Second {
		t.Fatalf("expected 50s until reset, got %v", retry)
	}

	now = now.Add(time.Minute)
	if ok, _, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatalf("next window should pass")
	}
}

func TestRoomPresenceLeasesPerInstance(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	a := NewRoomPresence(client, time.Minute).WithInstance("a")
	b := NewRoomPresence(client, time.Minute).WithInstance("b")

	a.RoomActive("game:g1")
	b.RoomActive("game:g1")
	if !mr.Exists("room:game:g1:live") {
		t.Fatalf("expected redis key to be set")
	}
	if mr.TTL("room:game:g1:live") <= 0 {
		t.Fatalf("expected key ttl")
	}

	a.RoomClosed("game:g1")
	if live, err := a.IsLive(ctx, "game:g1"); err != nil || !live {
		t.Fatalf("room should stay live while b holds sockets: %v %v", live, err)
	}

	b.RoomClosed("game:g1")
	if live, _ := a.IsLive(ctx, "game:g1"); live {
		t.Fatalf("room should be idle once every instance closed it")
	}
}

func TestRoomPresenceLeaseLapsesWithoutRefresh(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	presence := NewRoomPresence(newClient(mr), time.Minute).WithClock(func() time.Time { return now })

	presence.RoomActive("game:g1")
	now = now.Add(45 * time.Second)
	if live, _ := presence.IsLive(ctx, "game:g1"); !live {
		t.Fatalf("lease should still hold")
	}

	presence.RoomActive("game:g1")
	now = now.Add(45 * time.Second)
	if live, _ := presence.IsLive(ctx, "game:g1"); !live {
		t.Fatalf("refresh should extend the lease")
	}

	now = now.Add(time.Minute)
	if live, _ := presence.IsLive(ctx, "game:g1"); live {
		t.Fatalf("lease should lapse without a refresh")
	}
}

type countingLoader struct {
	codes map[string]string
	calls int
}

func (l *countingLoader) LoadGameID(_ context.Context, code string) (string, error) {
	l.calls++
	if id, ok := l.codes[code]; ok {
		return id, nil
	}
	return "", domain.ErrJoinCodeNotFound
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
