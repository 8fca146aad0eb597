package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/internal/tenant"
	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/jwtutil"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

// AuthHandler serves registration, login and token refresh
type AuthHandler struct {
	db      *gorm.DB
	jwt     *jwtutil.JWTUtil
	tenants *tenant.Service
}

// NewAuthHandler creates an AuthHandler with its collaborators
func NewAuthHandler(db *gorm.DB, jwt *jwtutil.JWTUtil, tenants *tenant.Service) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, tenants: tenants}
}

// Register creates a new platform user
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse register request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]string{}
	requireField(fields, "email", req.Email)
	matchPattern(fields, "email", req.Email, emailPattern, "must be a valid email address")
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:     req.Email,
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		prometheus.RecordAuthError("register_failed")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	log.Info("User registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and issues access and refresh tokens. An
// optional tenant slug selects the tenant context for the access token;
// with no slug the user's default tenant is used when present.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TenantSlug string `json:"tenant_slug,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Resolve the tenant to bind the session to
	var selected *model.Tenant
	if req.TenantSlug != "" {
		t, err := h.tenants.BySlug(c.Request().Context(), req.TenantSlug)
		if err != nil {
			log.Warn("Unknown tenant on login", zap.String("slug", req.TenantSlug))
			prometheus.RecordAuthError("tenant_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		selected = t
	} else if user.TenantID != nil {
		if t, err := h.tenants.ByID(c.Request().Context(), *user.TenantID); err == nil {
			selected = t
		}
	}

	return h.issueTokens(c, &user, selected)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandler) Refresh(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
		TenantSlug   string `json:"tenant_slug,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		log.Warn("Invalid refresh token", zap.Error(err))
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	var user model.User
	if err := h.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	var selected *model.Tenant
	if req.TenantSlug != "" {
		if t, err := h.tenants.BySlug(c.Request().Context(), req.TenantSlug); err == nil {
			selected = t
		}
	} else if user.TenantID != nil {
		if t, err := h.tenants.ByID(c.Request().Context(), *user.TenantID); err == nil {
			selected = t
		}
	}

	return h.issueTokens(c, &user, selected)
}

// issueTokens validates tenant membership and status, then writes the
// token pair response. A nil tenant yields a tenant-less session that can
// only reach tenant selection endpoints.
func (h *AuthHandler) issueTokens(c echo.Context, user *model.User, t *model.Tenant) error {
	log := logger.FromEcho(c)

	var accessToken string
	var err error

	if t != nil {
		// Tenant must be workable before a session is bound to it
		if d := authz.Evaluate(authz.Session{}, tenant.AuthzTenant(t), authz.TenantGuard()); !d.Allowed {
			prometheus.RecordGuardDenial(d.Redirect)
			body := echo.Map{"error": "tenant unavailable", "redirect": d.Redirect}
			for k, v := range d.Params {
				body[k] = v
			}
			return c.JSON(http.StatusForbidden, body)
		}

		// The user must hold an active membership in the tenant
		var membership model.UserTenant
		if err := h.db.Where("user_id = ? AND tenant_id = ? AND active = ?", user.ID, t.ID, true).First(&membership).Error; err != nil {
			log.Warn("User has no access to tenant",
				zap.String("user_id", user.ID),
				zap.String("tenant_id", t.ID))
			prometheus.RecordAuthError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}

		accessToken, err = h.jwt.GenerateTokenWithTenant(user.Email, user.ID, &t.ID, t.Name, membership.Role, []string(membership.Permissions))
	} else {
		accessToken, err = h.jwt.GenerateToken(user.Email, user.ID)
	}
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(user.Email, user.ID)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	resp := echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	}
	if t != nil {
		resp["tenant"] = echo.Map{"id": t.ID, "slug": t.Slug, "name": t.Name}
		log.Info("User logged in with tenant context",
			zap.String("user_id", user.ID),
			zap.String("tenant_id", t.ID))
	} else {
		log.Info("User logged in without tenant context", zap.String("user_id", user.ID))
	}
	return c.JSON(http.StatusOK, resp)
}
