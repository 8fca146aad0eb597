package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/badurubalaji/msls-sub015/pkg/config"
)

// TokenTypeAccess and TokenTypeRefresh distinguish the two token kinds
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// UserClaims represents the JWT claims for an authenticated user.
// Tenant fields are present once a tenant has been selected; every
// tenant-scoped endpoint requires them.
type UserClaims struct {
	Email       string   `json:"email"`
	UserID      string   `json:"user_id"`
	TenantID    *string  `json:"tenant_id,omitempty"`
	TenantName  string   `json:"tenant_name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
}

// New creates a new JWT utility with the given configuration
func New(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg}
}

// GenerateToken creates an access token without tenant context
func (j *JWTUtil) GenerateToken(email, userID string) (string, error) {
	return j.GenerateTokenWithTenant(email, userID, nil, "", "", nil)
}

// GenerateTokenWithTenant creates an access token carrying tenant context
func (j *JWTUtil) GenerateTokenWithTenant(email, userID string, tenantID *string, tenantName, role string, permissions []string) (string, error) {
	return j.sign(email, userID, tenantID, tenantName, role, permissions, TokenTypeAccess, j.config.AccessExpiresIn)
}

// GenerateRefreshToken creates a refresh token for the user. Refresh tokens
// never carry tenant context; tenant selection happens on exchange.
func (j *JWTUtil) GenerateRefreshToken(email, userID string) (string, error) {
	return j.sign(email, userID, nil, "", "", nil, TokenTypeRefresh, j.config.RefreshExpiresIn)
}

func (j *JWTUtil) sign(email, userID string, tenantID *string, tenantName, role string, permissions []string, tokenType string, ttl time.Duration) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := UserClaims{
		Email:       email,
		UserID:      userID,
		TenantID:    tenantID,
		TenantName:  tenantName,
		Role:        role,
		Permissions: permissions,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.Secret))
}

// ValidateToken validates and parses a JWT token of either kind
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.Secret), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateRefreshToken validates a token and requires it to be a refresh token
func (j *JWTUtil) ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}
