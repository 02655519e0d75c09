package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, claims models.JWTClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSessionValidateTokenSuccess(t *testing.T) {
	svc := NewSessionService(SessionConfig{AccessTokenSecret: testSecret})

	raw := signTestToken(t, models.JWTClaims{
		UserID:    "t-1",
		Email:     "teacher@school.edu",
		FirstName: "Pat",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "t-1", claims.UserID)

	identity := claims.Identity()
	assert.Equal(t, "t-1", identity.TeacherID)
	assert.Equal(t, "Pat", identity.DisplayName())
}

func TestSessionValidateTokenWrongSecret(t *testing.T) {
	svc := NewSessionService(SessionConfig{AccessTokenSecret: testSecret})

	raw := signTestToken(t, models.JWTClaims{UserID: "t-1"}, "other-secret")

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestSessionValidateTokenExpired(t *testing.T) {
	svc := NewSessionService(SessionConfig{AccessTokenSecret: testSecret})

	raw := signTestToken(t, models.JWTClaims{
		UserID: "t-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, testSecret)

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestSessionValidateTokenMissingIdentity(t *testing.T) {
	svc := NewSessionService(SessionConfig{AccessTokenSecret: testSecret})

	raw := signTestToken(t, models.JWTClaims{Email: "teacher@school.edu"}, testSecret)

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestIdentityDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "Your Teacher", models.Identity{}.DisplayName())
	assert.Equal(t, "Pat Lee", models.Identity{FirstName: " Pat ", LastName: " Lee "}.DisplayName())
}
