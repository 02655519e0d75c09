package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/response"
)

type tokenService interface {
	Status(ctx context.Context, teacherID string) (*dto.TokenStatusResponse, error)
	Save(ctx context.Context, teacherID, canvasToken string) (*dto.TokenStatusResponse, error)
}

// TokenHandler exposes the teacher's Canvas token status and storage.
type TokenHandler struct {
	service tokenService
}

// NewTokenHandler constructs the handler.
func NewTokenHandler(service tokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// Status godoc
// @Summary Canvas token connection status
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile/token [get]
func (h *TokenHandler) Status(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.Status(c.Request.Context(), identity.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Save godoc
// @Summary Store a Canvas personal access token
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body dto.SaveTokenRequest true "Token"
// @Success 200 {object} response.Envelope
// @Router /profile/token [post]
func (h *TokenHandler) Save(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SaveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	status, err := h.service.Save(c.Request.Context(), identity.TeacherID, req.CanvasToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
