package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/internal/tenant"
	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

const tenantKey = "tenant"

// TenantContext resolves the tenant for the request and gates access on
// it. A :tenant path parameter is adopted as the current tenant after
// validation against the tenant store; otherwise the session's tenant
// claim is used. The request is denied before any storage access when no
// tenant is in scope, when the route tenant conflicts with the session's,
// or when the tenant is not active.
func TenantContext(tenants *tenant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)
			sess := SessionFrom(c)

			var t *model.Tenant
			var err error

			if slug := c.Param("tenant"); slug != "" {
				t, err = tenants.BySlug(c.Request().Context(), slug)
				if err != nil {
					if errors.Is(err, tenant.ErrNotFound) {
						log.Warn("Unknown tenant slug", zap.String("slug", slug))
						return denyJSON(c, authz.Deny(authz.RedirectTenantSelection, nil))
					}
					log.Error("Tenant lookup failed", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant lookup failed"})
				}
				// A session bound to another tenant must not operate here
				if sess.TenantID != "" && sess.TenantID != t.ID {
					log.Warn("Tenant mismatch between route and session",
						zap.String("route_tenant", t.ID),
						zap.String("session_tenant", sess.TenantID))
					return denyJSON(c, authz.Deny(authz.RedirectAccessDenied, map[string]string{"reason": "tenant_mismatch"}))
				}
			} else if sess.TenantID != "" {
				t, err = tenants.ByID(c.Request().Context(), sess.TenantID)
				if err != nil && !errors.Is(err, tenant.ErrNotFound) {
					log.Error("Tenant lookup failed", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant lookup failed"})
				}
			}

			if d := authz.Evaluate(sess, tenant.AuthzTenant(t), authz.TenantGuard()); !d.Allowed {
				log.Warn("Tenant guard denied request",
					zap.String("redirect", d.Redirect),
					zap.Any("params", d.Params))
				return denyJSON(c, d)
			}

			c.Set(tenantKey, t)
			c.Set("logger", log.With(zap.String("tenant_id", t.ID)))
			return next(c)
		}
	}
}

// Guards evaluates additional policy guards against the session and the
// tenant already resolved by TenantContext.
func Guards(guards ...authz.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			t := tenant.AuthzTenant(TenantFrom(c))
			if d := authz.Evaluate(sess, t, guards...); !d.Allowed {
				logger.FromEcho(c).Warn("Guard denied request",
					zap.String("redirect", d.Redirect),
					zap.Any("params", d.Params))
				return denyJSON(c, d)
			}
			return next(c)
		}
	}
}

// TenantFrom returns the tenant resolved by TenantContext, or nil
func TenantFrom(c echo.Context) *model.Tenant {
	t, ok := c.Get(tenantKey).(*model.Tenant)
	if !ok {
		return nil
	}
	return t
}

func denyJSON(c echo.Context, d authz.Decision) error {
	prometheus.RecordGuardDenial(d.Redirect)
	body := echo.Map{
		"error":    "access denied",
		"redirect": d.Redirect,
	}
	for k, v := range d.Params {
		body[k] = v
	}
	return c.JSON(http.StatusForbidden, body)
}
