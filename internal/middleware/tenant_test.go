package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/internal/tenant"
	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/cache"
)

// emptyStore reports every tenant as unknown, standing in for the
// database on the cache-miss path.
type emptyStore struct{}

func (emptyStore) FindBySlug(context.Context, string) (*model.Tenant, error) {
	return nil, tenant.ErrNotFound
}

func (emptyStore) FindByID(context.Context, string) (*model.Tenant, error) {
	return nil, tenant.ErrNotFound
}

// cachedService builds a tenant service whose lookups are served from a
// pre-warmed in-process cache; anything else misses into emptyStore, so
// no database is involved.
func cachedService(t *testing.T, tenants ...*model.Tenant) *tenant.Service {
	t.Helper()
	c := cache.NewMemory(time.Minute)
	for _, tn := range tenants {
		b, err := json.Marshal(tn)
		require.NoError(t, err)
		c.Set(context.Background(), "tenant:slug:"+tn.Slug, b, time.Minute)
		c.Set(context.Background(), "tenant:id:"+tn.ID, b, time.Minute)
	}
	return tenant.NewService(emptyStore{}, c, time.Minute)
}

// scopedRequest runs TenantContext for a route carrying a :tenant param
func scopedRequest(t *testing.T, svc *tenant.Service, slug string, sess *authz.Session, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/t/:tenant/students")
	c.SetParamNames("tenant")
	c.SetParamValues(slug)
	if sess != nil {
		c.Set("session", *sess)
	}
	require.NoError(t, TenantContext(svc)(next)(c))
	return rec
}

func denialBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTenantContextAllowsActiveTenant(t *testing.T) {
	svc := cachedService(t, &model.Tenant{
		ID: "t-1", Slug: "springfield-high", Name: "Springfield High School",
		Status: model.TenantStatusActive,
	})

	var resolved *model.Tenant
	rec := scopedRequest(t, svc, "springfield-high", nil, func(c echo.Context) error {
		resolved = TenantFrom(c)
		return c.NoContent(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resolved)
	assert.Equal(t, "t-1", resolved.ID)
}

func TestTenantContextRejectsUnknownSlug(t *testing.T) {
	svc := cachedService(t)

	rec := scopedRequest(t, svc, "nowhere-academy", nil, okHandler)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := denialBody(t, rec)
	assert.Equal(t, authz.RedirectTenantSelection, body["redirect"])
}

func TestTenantContextRejectsSuspendedTenant(t *testing.T) {
	svc := cachedService(t, &model.Tenant{
		ID: "t-2", Slug: "shelbyville-elementary",
		Status: model.TenantStatusSuspended,
	})

	rec := scopedRequest(t, svc, "shelbyville-elementary", nil, okHandler)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := denialBody(t, rec)
	assert.Equal(t, authz.RedirectTenantUnavailable, body["redirect"])
	assert.Equal(t, "suspended", body["reason"])
}

func TestTenantContextRejectsSessionTenantMismatch(t *testing.T) {
	svc := cachedService(t, &model.Tenant{
		ID: "t-1", Slug: "springfield-high", Status: model.TenantStatusActive,
	})

	sess := &authz.Session{UserID: "user-1", TenantID: "t-other"}
	rec := scopedRequest(t, svc, "springfield-high", sess, okHandler)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := denialBody(t, rec)
	assert.Equal(t, authz.RedirectAccessDenied, body["redirect"])
	assert.Equal(t, "tenant_mismatch", body["reason"])
}

func TestTenantContextFallsBackToSessionTenant(t *testing.T) {
	svc := cachedService(t, &model.Tenant{
		ID: "t-1", Slug: "springfield-high", Status: model.TenantStatusActive,
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("session", authz.Session{UserID: "user-1", TenantID: "t-1"})

	require.NoError(t, TenantContext(svc)(func(c echo.Context) error {
		tn := TenantFrom(c)
		require.NotNil(t, tn)
		assert.Equal(t, "springfield-high", tn.Slug)
		return c.NoContent(http.StatusOK)
	})(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantContextRequiresSomeTenant(t *testing.T) {
	svc := cachedService(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// authenticated session with no tenant selected, no slug in the route
	c.Set("session", authz.Session{UserID: "user-1"})

	require.NoError(t, TenantContext(svc)(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := denialBody(t, rec)
	assert.Equal(t, authz.RedirectTenantSelection, body["redirect"])
}

func TestGuardsDenyMissingFeature(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("tenant", &model.Tenant{ID: "t-1", Status: model.TenantStatusActive, Features: model.FeatureList{"exams"}})
	c.Set("session", authz.Session{UserID: "user-1", TenantID: "t-1"})

	require.NoError(t, Guards(authz.FeatureGuard("transport"))(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := denialBody(t, rec)
	assert.Equal(t, authz.RedirectFeatureUnavailable, body["redirect"])
	assert.Equal(t, "transport", body["feature"])
}

func TestGuardsEnforcePermissions(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.Set("tenant", &model.Tenant{ID: "t-1", Status: model.TenantStatusActive})
	c.Set("session", authz.Session{UserID: "user-1", TenantID: "t-1", Permissions: []string{"students:read"}})

	require.NoError(t, Guards(authz.RequirePermission("students:write"))(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, authz.RedirectAccessDenied, denialBody(t, rec)["redirect"])

	// with the right grant the request passes through
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec2)
	c2.Set("tenant", &model.Tenant{ID: "t-1", Status: model.TenantStatusActive})
	c2.Set("session", authz.Session{UserID: "user-1", TenantID: "t-1", Permissions: []string{"students:write"}})

	require.NoError(t, Guards(authz.RequirePermission("students:write"))(okHandler)(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)
}
