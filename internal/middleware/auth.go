package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/jwtutil"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

const sessionKey = "session"

// Auth returns a middleware that validates the JWT bearer token and
// attaches the caller's session to the request context.
func Auth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			// Validate the token
			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			if claims.TokenType != jwtutil.TokenTypeAccess {
				log.Warn("Refresh token used on API endpoint")
				prometheus.RecordAuthError("wrong_token_type")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Build the request-scoped session from the claims
			sess := authz.Session{
				UserID:      claims.UserID,
				Email:       claims.Email,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			}
			if claims.TenantID != nil {
				sess.TenantID = *claims.TenantID
			}
			c.Set(sessionKey, sess)

			return next(c)
		}
	}
}

// SessionFrom returns the session attached by the Auth middleware. The
// zero session is returned on unauthenticated routes.
func SessionFrom(c echo.Context) authz.Session {
	sess, ok := c.Get(sessionKey).(authz.Session)
	if !ok {
		return authz.Session{}
	}
	return sess
}
