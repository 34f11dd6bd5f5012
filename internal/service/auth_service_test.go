package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "qbank-admin",
	})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken(models.TokenSubject{UserID: "u1", Role: models.RoleContentManager, Email: "cm@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleContentManager, claims.Role)
	assert.Equal(t, "qbank-admin", claims.Issuer)
}

func TestAuthServiceRejectsUnknownRoleOnIssue(t *testing.T) {
	_, _, err := newTestAuthService().IssueToken(models.TokenSubject{UserID: "u1", Role: "STUDENT"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenFailures(t *testing.T) {
	svc := newTestAuthService()

	expired := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "qbank-admin"})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.IssueToken(models.TokenSubject{UserID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "qbank-admin"})
	foreignToken, _, err := other.IssueToken(models.TokenSubject{UserID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	wrongIssuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	wrongIssuerToken, _, err := wrongIssuer.IssueToken(models.TokenSubject{UserID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &models.JWTClaims{
		UserID:           "u1",
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "qbank-admin", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expiredToken,
		"wrong secret": foreignToken,
		"wrong issuer": wrongIssuerToken,
		"wrong alg":    hs512,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestAuthServiceRejectsNonAdminRole(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID:           "s1",
		Role:             "STUDENT",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "qbank-admin", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
