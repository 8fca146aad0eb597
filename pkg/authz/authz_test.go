package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func activeTenant() *Tenant {
	return &Tenant{ID: "t-1", Slug: "springfield-high", Status: "active", Features: []string{"exams"}}
}

func TestTenantGuard(t *testing.T) {
	tests := []struct {
		name         string
		tenant       *Tenant
		wantAllowed  bool
		wantRedirect string
		wantParams   map[string]string
	}{
		{
			name:        "active tenant passes",
			tenant:      activeTenant(),
			wantAllowed: true,
		},
		{
			name:         "no tenant redirects to selection",
			tenant:       nil,
			wantAllowed:  false,
			wantRedirect: RedirectTenantSelection,
		},
		{
			name:         "tenant without id redirects to selection",
			tenant:       &Tenant{Status: "active"},
			wantAllowed:  false,
			wantRedirect: RedirectTenantSelection,
		},
		{
			name:         "suspended tenant redirects with reason",
			tenant:       &Tenant{ID: "t-1", Status: "suspended"},
			wantAllowed:  false,
			wantRedirect: RedirectTenantUnavailable,
			wantParams:   map[string]string{"reason": "suspended"},
		},
		{
			name:         "pending tenant redirects with reason",
			tenant:       &Tenant{ID: "t-1", Status: "pending"},
			wantAllowed:  false,
			wantRedirect: RedirectTenantUnavailable,
			wantParams:   map[string]string{"reason": "pending"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := TenantGuard()(Session{}, tt.tenant)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			if tt.wantParams != nil {
				assert.Equal(t, tt.wantParams, d.Params)
			}
		})
	}
}

func TestRequireTenantIsIndependentOfStatus(t *testing.T) {
	// strict variant looks only at the session's tenant binding
	d := RequireTenant()(Session{}, activeTenant())
	assert.False(t, d.Allowed)
	assert.Equal(t, RedirectTenantSelection, d.Redirect)

	d = RequireTenant()(Session{TenantID: "t-1"}, &Tenant{ID: "t-1", Status: "suspended"})
	assert.True(t, d.Allowed)
}

func TestFeatureGuard(t *testing.T) {
	d := FeatureGuard("exams")(Session{}, activeTenant())
	assert.True(t, d.Allowed)

	d = FeatureGuard("transport")(Session{}, activeTenant())
	assert.False(t, d.Allowed)
	assert.Equal(t, RedirectFeatureUnavailable, d.Redirect)
	assert.Equal(t, map[string]string{"feature": "transport"}, d.Params)

	d = FeatureGuard("exams")(Session{}, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, RedirectTenantSelection, d.Redirect)
}

func TestPermissionGuards(t *testing.T) {
	sess := Session{Permissions: []string{"students:read", "exams:read"}}

	t.Run("single", func(t *testing.T) {
		assert.True(t, RequirePermission("students:read")(sess, nil).Allowed)

		d := RequirePermission("students:write")(sess, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, RedirectAccessDenied, d.Redirect)
		assert.Equal(t, "students:write", d.Params["permission"])
	})

	t.Run("any-of", func(t *testing.T) {
		assert.True(t, RequireAnyPermission("students:write", "students:read")(sess, nil).Allowed)
		assert.False(t, RequireAnyPermission("students:write", "admissions:write")(sess, nil).Allowed)
		// an empty grant set matches nothing
		assert.False(t, RequireAnyPermission("students:read")(Session{}, nil).Allowed)
	})

	t.Run("all-of", func(t *testing.T) {
		assert.True(t, RequireAllPermissions("students:read", "exams:read")(sess, nil).Allowed)

		d := RequireAllPermissions("students:read", "students:write")(sess, nil)
		assert.False(t, d.Allowed)
		assert.Equal(t, "students:write", d.Params["permission"])
	})
}

func TestRequireRole(t *testing.T) {
	sess := Session{Role: "teacher"}

	assert.True(t, RequireRole("admin", "teacher")(sess, nil).Allowed)

	d := RequireRole("admin", "owner")(sess, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, RedirectAccessDenied, d.Redirect)
}

func TestEvaluateFirstDenialWins(t *testing.T) {
	sess := Session{TenantID: "t-1", Permissions: []string{"students:read"}}

	d := Evaluate(sess, activeTenant(),
		RequireTenant(),
		TenantGuard(),
		RequirePermission("students:read"),
	)
	assert.True(t, d.Allowed)

	d = Evaluate(sess, &Tenant{ID: "t-1", Status: "archived"},
		RequireTenant(),
		TenantGuard(),
		RequirePermission("students:read"),
	)
	assert.False(t, d.Allowed)
	assert.Equal(t, RedirectTenantUnavailable, d.Redirect)
	assert.Equal(t, "archived", d.Params["reason"])

	// no guards means allow
	assert.True(t, Evaluate(sess, nil).Allowed)
}
