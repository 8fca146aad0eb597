package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Cache for single-instance deployments and tests
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process cache with the given default TTL
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}
