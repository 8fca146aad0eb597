package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/badurubalaji/msls-sub015/pkg/config"
)

// Cache is a byte-oriented key/value store with per-entry TTL. Tenant
// lookups go through it so guard checks stay off the database hot path.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// New builds the cache backend selected by configuration
func New(cfg *config.Config) (Cache, error) {
	switch cfg.Cache.Kind {
	case "redis":
		return NewRedis(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB), nil
	case "memory", "":
		return NewMemory(cfg.Cache.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}
}
