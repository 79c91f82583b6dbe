package redis

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RoomPresence shares which realtime rooms hold sockets across instances.
// Each instance leases its membership in a sorted set scored by lease expiry:
//
//	ZADD room:{room}:live <expiry-unix-ms> <instance>
//
// A room is live while any lease is unexpired.
type RoomPresence struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	clock    func() time.Time
}

func NewRoomPresence(client *redis.Client, ttl time.Duration) *RoomPresence {
	return &RoomPresence{client: client, ttl: ttl, instance: uuid.NewString(), clock: time.Now}
}

// WithInstance pins the lease owner name.
func (p *RoomPresence) WithInstance(id string) *RoomPresence {
	p.instance = id
	return p
}

func (p *RoomPresence) WithClock(now func() time.Time) *RoomPresence {
	p.clock = now
	return p
}

// TTL is how long a lease survives without a refresh.
func (p *RoomPresence) TTL() time.Duration {
	return p.ttl
}

// RoomActive creates or extends this instance's lease. Best effort.
func (p *RoomPresence) RoomActive(room string) {
	ctx := context.Background()
	expiry := p.clock().Add(p.ttl).UnixMilli()
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, p.key(room), redis.Z{Score: float64(expiry), Member: p.instance})
		pipe.Expire(ctx, p.key(room), p.ttl)
		return nil
	})
	if err != nil {
		log.Printf("[presence] mark %s: %v", room, err)
	}
}

// RoomClosed drops only this instance's lease.
func (p *RoomPresence) RoomClosed(room string) {
	if err := p.client.ZRem(context.Background(), p.key(room), p.instance).Err(); err != nil {
		log.Printf("[presence] clear %s: %v", room, err)
	}
}

// IsLive reports whether any instance holds an unexpired lease on room.
func (p *RoomPresence) IsLive(ctx context.Context, room string) (bool, error) {
	now := strconv.FormatInt(p.clock().UnixMilli(), 10)
	n, err := p.client.ZCount(ctx, p.key(room), "("+now, "+inf").Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *RoomPresence) key(room string) string {
	return "room:" + room + ":live"
}
