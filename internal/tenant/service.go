package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/cache"
)

// ErrNotFound is returned when no tenant matches the given slug or id
var ErrNotFound = errors.New("tenant not found")

// Store loads tenant rows from persistent storage
type Store interface {
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

// NewStore returns the gorm-backed Store used in production
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

type gormStore struct {
	db *gorm.DB
}

func (g *gormStore) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var t model.Tenant
	if err := g.db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (g *gormStore) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Service resolves tenants by slug or id. Lookups go through the cache
// first; the service is the only writer of those cache entries.
type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
}

// NewService creates a tenant resolver
func NewService(store Store, c cache.Cache, ttl time.Duration) *Service {
	return &Service{store: store, cache: c, ttl: ttl}
}

// BySlug resolves a tenant by its URL slug
func (s *Service) BySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	return s.lookup(ctx, "tenant:slug:"+slug, func() (*model.Tenant, error) {
		return s.store.FindBySlug(ctx, slug)
	})
}

// ByID resolves a tenant by its UUID
func (s *Service) ByID(ctx context.Context, id string) (*model.Tenant, error) {
	return s.lookup(ctx, "tenant:id:"+id, func() (*model.Tenant, error) {
		return s.store.FindByID(ctx, id)
	})
}

func (s *Service) lookup(ctx context.Context, key string, fetch func() (*model.Tenant, error)) (*model.Tenant, error) {
	if b, ok := s.cache.Get(ctx, key); ok {
		var t model.Tenant
		if err := json.Unmarshal(b, &t); err == nil {
			return &t, nil
		}
		// corrupt entry: drop it and fall through to the store
		s.cache.Delete(ctx, key)
	}

	t, err := fetch()
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(t); err == nil {
		s.cache.Set(ctx, key, b, s.ttl)
	}
	return t, nil
}

// Invalidate drops the cache entries for a tenant after a mutation
func (s *Service) Invalidate(ctx context.Context, t *model.Tenant) {
	s.cache.Delete(ctx, "tenant:slug:"+t.Slug)
	s.cache.Delete(ctx, "tenant:id:"+t.ID)
}

// AuthzTenant converts a tenant record into the guard evaluation view
func AuthzTenant(t *model.Tenant) *authz.Tenant {
	if t == nil {
		return nil
	}
	return &authz.Tenant{
		ID:       t.ID,
		Slug:     t.Slug,
		Status:   t.Status,
		Features: []string(t.Features),
	}
}
