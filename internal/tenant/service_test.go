package tenant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/pkg/cache"
)

// spyCache records operations so tests can assert the lookup path taken
type spyCache struct {
	data    map[string][]byte
	gets    []string
	sets    []string
	deletes []string
}

func newSpyCache() *spyCache {
	return &spyCache{data: map[string][]byte{}}
}

func (s *spyCache) Get(_ context.Context, key string) ([]byte, bool) {
	s.gets = append(s.gets, key)
	b, ok := s.data[key]
	return b, ok
}

func (s *spyCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	s.sets = append(s.sets, key)
	s.data[key] = value
}

func (s *spyCache) Delete(_ context.Context, key string) {
	s.deletes = append(s.deletes, key)
	delete(s.data, key)
}

var _ cache.Cache = (*spyCache)(nil)

// stubStore serves a fixed tenant, or ErrNotFound when none matches
type stubStore struct {
	tenant *model.Tenant
	calls  int
}

func (s *stubStore) FindBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	s.calls++
	if s.tenant != nil && s.tenant.Slug == slug {
		return s.tenant, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) FindByID(_ context.Context, id string) (*model.Tenant, error) {
	s.calls++
	if s.tenant != nil && s.tenant.ID == id {
		return s.tenant, nil
	}
	return nil, ErrNotFound
}

var _ Store = (*stubStore)(nil)

func warm(t *testing.T, c *spyCache, key string, tn *model.Tenant) {
	t.Helper()
	b, err := json.Marshal(tn)
	require.NoError(t, err)
	c.data[key] = b
}

func TestBySlugServedFromCache(t *testing.T) {
	c := newSpyCache()
	tn := &model.Tenant{ID: "t-1", Slug: "springfield-high", Name: "Springfield High School", Status: model.TenantStatusActive}
	warm(t, c, "tenant:slug:springfield-high", tn)

	// a cache hit must never reach the store
	store := &stubStore{}
	svc := NewService(store, c, time.Minute)

	got, err := svc.BySlug(context.Background(), "springfield-high")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, got.ID)
	assert.Equal(t, tn.Status, got.Status)
	assert.Equal(t, []string{"tenant:slug:springfield-high"}, c.gets)
	assert.Empty(t, c.sets)
	assert.Zero(t, store.calls)
}

func TestBySlugMissFetchesAndCaches(t *testing.T) {
	c := newSpyCache()
	tn := &model.Tenant{ID: "t-1", Slug: "springfield-high", Status: model.TenantStatusActive}
	svc := NewService(&stubStore{tenant: tn}, c, time.Minute)

	got, err := svc.BySlug(context.Background(), "springfield-high")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, []string{"tenant:slug:springfield-high"}, c.sets)

	// the second lookup is served from the freshly written entry
	store := &stubStore{}
	svc = NewService(store, c, time.Minute)
	got, err = svc.BySlug(context.Background(), "springfield-high")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Zero(t, store.calls)
}

func TestBySlugUnknownReturnsNotFound(t *testing.T) {
	c := newSpyCache()
	svc := NewService(&stubStore{}, c, time.Minute)

	_, err := svc.BySlug(context.Background(), "nowhere-academy")
	assert.ErrorIs(t, err, ErrNotFound)
	// nothing gets cached for a miss
	assert.Empty(t, c.sets)
}

func TestByIDServedFromCache(t *testing.T) {
	c := newSpyCache()
	tn := &model.Tenant{ID: "t-1", Slug: "springfield-high", Status: model.TenantStatusSuspended}
	warm(t, c, "tenant:id:t-1", tn)

	svc := NewService(&stubStore{}, c, time.Minute)

	got, err := svc.ByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, model.TenantStatusSuspended, got.Status)
}

func TestInvalidateDropsBothKeys(t *testing.T) {
	c := newSpyCache()
	tn := &model.Tenant{ID: "t-1", Slug: "springfield-high"}
	warm(t, c, "tenant:slug:springfield-high", tn)
	warm(t, c, "tenant:id:t-1", tn)

	svc := NewService(&stubStore{}, c, time.Minute)
	svc.Invalidate(context.Background(), tn)

	assert.ElementsMatch(t, []string{"tenant:slug:springfield-high", "tenant:id:t-1"}, c.deletes)
	assert.Empty(t, c.data)
}

func TestAuthzTenant(t *testing.T) {
	assert.Nil(t, AuthzTenant(nil))

	tn := &model.Tenant{
		ID:       "t-1",
		Slug:     "springfield-high",
		Status:   model.TenantStatusActive,
		Features: model.FeatureList{"exams"},
	}
	at := AuthzTenant(tn)
	require.NotNil(t, at)
	assert.Equal(t, "t-1", at.ID)
	assert.Equal(t, "springfield-high", at.Slug)
	assert.Equal(t, "active", at.Status)
	assert.Equal(t, []string{"exams"}, at.Features)
}
