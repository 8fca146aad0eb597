package cache

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server
type Redis struct {
	c *rdb.Client
}

// NewRedis connects a Redis-backed cache
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{c: rdb.NewClient(&rdb.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.c.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = r.c.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) {
	_ = r.c.Del(ctx, key).Err()
}

// Ping verifies the connection is usable
func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}
