package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badurubalaji/msls-sub015/pkg/config"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 168 * time.Hour,
		Issuer:           "msls-test",
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	j := New(testConfig())

	token, err := j.GenerateToken("bart@springfield.example", "user-1")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bart@springfield.example", claims.Email)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "msls-test", claims.Issuer)
	assert.Nil(t, claims.TenantID)
}

func TestTokenCarriesTenantContext(t *testing.T) {
	j := New(testConfig())
	tenantID := "tenant-1"

	token, err := j.GenerateTokenWithTenant("lisa@springfield.example", "user-2",
		&tenantID, "Springfield High School", "admin", []string{"students:read", "students:write"})
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, "tenant-1", *claims.TenantID)
	assert.Equal(t, "Springfield High School", claims.TenantName)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, []string{"students:read", "students:write"}, claims.Permissions)
}

func TestRefreshToken(t *testing.T) {
	j := New(testConfig())

	refresh, err := j.GenerateRefreshToken("bart@springfield.example", "user-1")
	require.NoError(t, err)

	claims, err := j.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	// an access token must not pass refresh validation
	access, err := j.GenerateToken("bart@springfield.example", "user-1")
	require.NoError(t, err)
	_, err = j.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	j := New(testConfig())
	token, err := j.GenerateToken("bart@springfield.example", "user-1")
	require.NoError(t, err)

	other := New(&config.JWTConfig{Secret: "different-secret", AccessExpiresIn: time.Minute, RefreshExpiresIn: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	j := New(&config.JWTConfig{Secret: "test-secret", AccessExpiresIn: -time.Minute, RefreshExpiresIn: time.Hour})
	token, err := j.GenerateToken("bart@springfield.example", "user-1")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	j := New(testConfig())
	_, err := j.ValidateToken("not.a.token")
	assert.Error(t, err)
}
