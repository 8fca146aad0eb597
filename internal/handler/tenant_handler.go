package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/badurubalaji/msls-sub015/internal/middleware"
	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/internal/tenant"
	"github.com/badurubalaji/msls-sub015/pkg/jwtutil"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

// TenantHandler serves tenant management and tenant selection
type TenantHandler struct {
	db      *gorm.DB
	jwt     *jwtutil.JWTUtil
	tenants *tenant.Service
}

// NewTenantHandler creates a TenantHandler with its collaborators
func NewTenantHandler(db *gorm.DB, jwt *jwtutil.JWTUtil, tenants *tenant.Service) *TenantHandler {
	return &TenantHandler{db: db, jwt: jwt, tenants: tenants}
}

// Create registers a new tenant school with the caller as owner. New
// tenants start in pending status until activated by the platform.
func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	sess := middleware.SessionFrom(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		Slug     string            `json:"slug"`
		Name     string            `json:"name"`
		Features model.FeatureList `json:"features,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]string{}
	requireField(fields, "slug", req.Slug)
	requireField(fields, "name", req.Name)
	maxLen(fields, "slug", req.Slug, 60)
	maxLen(fields, "name", req.Name, 100)
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	t := model.Tenant{
		Slug:     req.Slug,
		Name:     req.Name,
		Status:   model.TenantStatusPending,
		Features: req.Features,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		membership := model.UserTenant{
			UserID:      sess.UserID,
			TenantID:    t.ID,
			Role:        model.RoleOwner,
			Permissions: model.StringList{"students:read", "students:write", "admissions:read", "admissions:write", "exams:read", "exams:write", "documents:read", "documents:write"},
			IsDefault:   true,
			Active:      true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		log.Error("Failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant slug already in use"})
	}

	log.Info("Tenant created", zap.String("tenant_id", t.ID), zap.String("slug", t.Slug))
	return c.JSON(http.StatusCreated, t)
}

// ListMine lists the tenants the caller belongs to
func (h *TenantHandler) ListMine(c echo.Context) error {
	log := logger.FromEcho(c)
	sess := middleware.SessionFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var memberships []model.UserTenant
	if err := h.db.Preload("Tenant").Where("user_id = ? AND active = ?", sess.UserID, true).Find(&memberships).Error; err != nil {
		log.Error("Failed to list memberships", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tenants"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tenants": memberships})
}

// Select binds the session to a tenant, reissuing the access token with
// the tenant claims for that membership. Switching tenants goes through
// the same path.
func (h *TenantHandler) Select(c echo.Context) error {
	log := logger.FromEcho(c)
	sess := middleware.SessionFrom(c)
	prometheus.RecordTenantOperation("select")

	var req struct {
		TenantSlug string `json:"tenant_slug"`
	}
	if err := c.Bind(&req); err != nil || req.TenantSlug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_slug is required"})
	}

	var user model.User
	if err := h.db.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
	}

	t, err := h.tenants.BySlug(c.Request().Context(), req.TenantSlug)
	if err != nil {
		log.Warn("Unknown tenant on selection", zap.String("slug", req.TenantSlug))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	auth := &AuthHandler{db: h.db, jwt: h.jwt, tenants: h.tenants}
	return auth.issueTokens(c, &user, t)
}

// SetDefault marks one of the caller's memberships as the default tenant
func (h *TenantHandler) SetDefault(c echo.Context) error {
	log := logger.FromEcho(c)
	sess := middleware.SessionFrom(c)
	prometheus.RecordTenantOperation("set_default")

	var req struct {
		TenantID string `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil || req.TenantID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var membership model.UserTenant
	if err := h.db.Where("user_id = ? AND tenant_id = ? AND active = ?", sess.UserID, req.TenantID, true).First(&membership).Error; err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserTenant{}).Where("user_id = ?", sess.UserID).Update("is_default", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.UserTenant{}).Where("id = ?", membership.ID).Update("is_default", true).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", sess.UserID).Update("tenant_id", req.TenantID).Error
	})
	if err != nil {
		log.Error("Failed to set default tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to set default tenant"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "default tenant updated"})
}

// GetCurrent returns the tenant resolved for this request
func (h *TenantHandler) GetCurrent(c echo.Context) error {
	t := middleware.TenantFrom(c)
	if t == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no tenant in scope"})
	}
	return c.JSON(http.StatusOK, t)
}
