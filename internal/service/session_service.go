package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

// SessionConfig holds the verification secret shared with the external
// session provider.
type SessionConfig struct {
	AccessTokenSecret string
}

// SessionService verifies bearer tokens minted by the external auth provider
// and exposes the teacher identity they carry. This service never issues or
// refreshes tokens; it is a read-only adapter over the session provider.
type SessionService struct {
	config SessionConfig
}

// NewSessionService constructs a SessionService.
func NewSessionService(config SessionConfig) *SessionService {
	return &SessionService{config: config}
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no teacher identity")
	}

	return claims, nil
}
