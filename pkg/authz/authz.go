// Package authz evaluates authorization policies for route access.
//
// Guards are pure predicates over an explicit Session and Tenant; they
// return a Decision instead of raising errors, and the HTTP layer maps
// denials onto responses. Nothing here knows about echo, so handlers and
// tests can evaluate policies directly.
package authz

import "strings"

// Redirect destinations carried by deny decisions.
const (
	RedirectTenantSelection    = "tenant-selection"
	RedirectTenantUnavailable  = "tenant-unavailable"
	RedirectFeatureUnavailable = "feature-unavailable"
	RedirectAccessDenied       = "access-denied"
)

// Tenant is the tenant state a guard evaluates: identity, status and the
// set of enabled feature names.
type Tenant struct {
	ID       string
	Slug     string
	Status   string
	Features []string
}

// HasFeature reports whether the named capability is enabled
func (t *Tenant) HasFeature(name string) bool {
	if t == nil {
		return false
	}
	for _, f := range t.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Session is the authenticated caller's view: user identity plus the role
// and permission grants for the currently selected tenant.
type Session struct {
	UserID      string
	Email       string
	TenantID    string
	Role        string
	Permissions []string
}

// HasPermission reports whether the session grants the named permission
func (s Session) HasPermission(p string) bool {
	for _, g := range s.Permissions {
		if g == p {
			return true
		}
	}
	return false
}

// Decision is the outcome of a guard evaluation. Denials carry the
// redirect destination plus destination-specific parameters, e.g.
// reason=suspended or feature=exams.
type Decision struct {
	Allowed  bool
	Redirect string
	Params   map[string]string
}

// Allow returns a passing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a failing decision with a redirect destination
func Deny(redirect string, params map[string]string) Decision {
	return Decision{Allowed: false, Redirect: redirect, Params: params}
}

// Guard is a navigation-gating predicate
type Guard func(s Session, t *Tenant) Decision

// Evaluate runs guards in order; the first denial wins
func Evaluate(s Session, t *Tenant, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(s, t); !d.Allowed {
			return d
		}
	}
	return Allow()
}

// TenantGuard gates access on tenant presence and status: no tenant in
// scope redirects to tenant selection, a non-active tenant redirects to
// the unavailable destination carrying the status as reason.
func TenantGuard() Guard {
	return func(s Session, t *Tenant) Decision {
		if t == nil || t.ID == "" {
			return Deny(RedirectTenantSelection, nil)
		}
		if t.Status != "active" {
			return Deny(RedirectTenantUnavailable, map[string]string{"reason": t.Status})
		}
		return Allow()
	}
}

// RequireTenant is the strict variant: the session itself must carry a
// tenant identifier, independent of tenant status. It composes with
// TenantGuard for the status check.
func RequireTenant() Guard {
	return func(s Session, t *Tenant) Decision {
		if s.TenantID == "" {
			return Deny(RedirectTenantSelection, nil)
		}
		return Allow()
	}
}

// FeatureGuard denies access when the tenant's feature set lacks the
// named capability.
func FeatureGuard(feature string) Guard {
	return func(s Session, t *Tenant) Decision {
		if t == nil || t.ID == "" {
			return Deny(RedirectTenantSelection, nil)
		}
		if !t.HasFeature(feature) {
			return Deny(RedirectFeatureUnavailable, map[string]string{"feature": feature})
		}
		return Allow()
	}
}

// RequirePermission allows access iff the session grants the single
// named permission.
func RequirePermission(permission string) Guard {
	return func(s Session, t *Tenant) Decision {
		if !s.HasPermission(permission) {
			return Deny(RedirectAccessDenied, map[string]string{"permission": permission})
		}
		return Allow()
	}
}

// RequireAnyPermission allows access when the session grants at least one
// of the named permissions.
func RequireAnyPermission(permissions ...string) Guard {
	return func(s Session, t *Tenant) Decision {
		for _, p := range permissions {
			if s.HasPermission(p) {
				return Allow()
			}
		}
		return Deny(RedirectAccessDenied, map[string]string{"permission": strings.Join(permissions, "|")})
	}
}

// RequireAllPermissions allows access only when the session grants every
// named permission.
func RequireAllPermissions(permissions ...string) Guard {
	return func(s Session, t *Tenant) Decision {
		for _, p := range permissions {
			if !s.HasPermission(p) {
				return Deny(RedirectAccessDenied, map[string]string{"permission": p})
			}
		}
		return Allow()
	}
}

// RequireRole allows access when the session's role matches any of the
// named roles.
func RequireRole(roles ...string) Guard {
	return func(s Session, t *Tenant) Decision {
		for _, r := range roles {
			if s.Role == r {
				return Allow()
			}
		}
		return Deny(RedirectAccessDenied, map[string]string{"role": strings.Join(roles, "|")})
	}
}
