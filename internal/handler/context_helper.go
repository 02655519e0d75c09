package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/middleware"
	"github.com/progressnav/canvas-pulse-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func identityFromContext(c *gin.Context) (models.Identity, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return models.Identity{}, false
	}
	return claims.Identity(), true
}
