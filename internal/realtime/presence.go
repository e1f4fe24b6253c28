package realtime

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence mirrors connection state to a store other processes can read.
// The local Registry stays authoritative for delivery.
type Presence interface {
	MarkOnline(ctx context.Context, id string) error
	MarkOffline(ctx context.Context, id string) error
	IsOnline(ctx context.Context, id string) (bool, error)
}

// RedisPresence keeps presence:<id> keys that expire unless refreshed.
type RedisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPresence(rdb *redis.Client, ttl time.Duration) *RedisPresence {
	return &RedisPresence{rdb: rdb, ttl: ttl}
}

func presenceKey(id string) string {
	return "presence:" + id
}

func (p *RedisPresence) MarkOnline(ctx context.Context, id string) error {
	return p.rdb.Set(ctx, presenceKey(id), time.Now().Unix(), p.ttl).Err()
}

func (p *RedisPresence) MarkOffline(ctx context.Context, id string) error {
	return p.rdb.Del(ctx, presenceKey(id)).Err()
}

func (p *RedisPresence) IsOnline(ctx context.Context, id string) (bool, error) {
	n, err := p.rdb.Exists(ctx, presenceKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LocalPresence answers from the registry alone, for single-instance runs without redis.
type LocalPresence struct {
	registry *Registry
}

func NewLocalPresence(registry *Registry) *LocalPresence {
	return &LocalPresence{registry: registry}
}

func (p *LocalPresence) MarkOnline(ctx context.Context, id string) error { return nil }
func (p *LocalPresence) MarkOffline(ctx context.Context, id string) error { return nil }

func (p *LocalPresence) IsOnline(ctx context.Context, id string) (bool, error) {
	return p.registry.IsOnline(id), nil
}
