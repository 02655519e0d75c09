package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/response"
)

type composeService interface {
	OpenContact(ctx context.Context, identity models.Identity, req dto.OpenContactRequest) (*dto.ComposeSessionResponse, error)
	OpenReminder(ctx context.Context, identity models.Identity, req dto.OpenReminderRequest) (*dto.ComposeSessionResponse, error)
	Get(teacherID, sessionID string) (*dto.ComposeSessionResponse, error)
	Regenerate(ctx context.Context, identity models.Identity, sessionID string) (*dto.ComposeSessionResponse, error)
	UpdateDraft(teacherID, sessionID string, req dto.UpdateDraftRequest) (*dto.ComposeSessionResponse, error)
	Send(ctx context.Context, identity models.Identity, sessionID string) (*dto.SendResult, error)
	Close(teacherID, sessionID string) error
}

// ComposeHandler exposes the compose-and-send workflow.
type ComposeHandler struct {
	service composeService
}

// NewComposeHandler constructs the handler.
func NewComposeHandler(service composeService) *ComposeHandler {
	return &ComposeHandler{service: service}
}

// OpenContact godoc
// @Summary Open a contact-student compose session
// @Tags Compose
// @Accept json
// @Produce json
// @Param request body dto.OpenContactRequest true "Contact target"
// @Success 201 {object} response.Envelope
// @Router /compose/contact [post]
func (h *ComposeHandler) OpenContact(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.OpenContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	session, err := h.service.OpenContact(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, session)
}

// OpenReminder godoc
// @Summary Open an assignment-reminder compose session
// @Tags Compose
// @Accept json
// @Produce json
// @Param request body dto.OpenReminderRequest true "Reminder target"
// @Success 201 {object} response.Envelope
// @Router /compose/reminder [post]
func (h *ComposeHandler) OpenReminder(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.OpenReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	session, err := h.service.OpenReminder(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, session)
}

// Get godoc
// @Summary Fetch a compose session
// @Tags Compose
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /compose/{sessionId} [get]
func (h *ComposeHandler) Get(c *gin.Context) {
	identity, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	session, err := h.service.Get(identity.TeacherID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Regenerate godoc
// @Summary Regenerate the session draft with its original context
// @Tags Compose
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /compose/{sessionId}/regenerate [post]
func (h *ComposeHandler) Regenerate(c *gin.Context) {
	identity, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	session, err := h.service.Regenerate(c.Request.Context(), identity, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// UpdateDraft godoc
// @Summary Replace the session's subject and body
// @Tags Compose
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body dto.UpdateDraftRequest true "Draft content"
// @Success 200 {object} response.Envelope
// @Router /compose/{sessionId}/draft [put]
func (h *ComposeHandler) UpdateDraft(c *gin.Context) {
	identity, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	session, err := h.service.UpdateDraft(identity.TeacherID, sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Send godoc
// @Summary Send the session draft
// @Tags Compose
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /compose/{sessionId}/send [post]
func (h *ComposeHandler) Send(c *gin.Context) {
	identity, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Send(c.Request.Context(), identity, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Close godoc
// @Summary Discard a compose session without sending
// @Tags Compose
// @Param sessionId path string true "Session ID"
// @Success 204
// @Router /compose/{sessionId} [delete]
func (h *ComposeHandler) Close(c *gin.Context) {
	identity, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	if err := h.service.Close(identity.TeacherID, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ComposeHandler) sessionRequest(c *gin.Context) (identity models.Identity, sessionID string, ok bool) {
	identity, ok = identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return identity, "", false
	}
	sessionID = strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId is required"))
		return identity, "", false
	}
	return identity, sessionID, true
}
