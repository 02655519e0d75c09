package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/service"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/response"
)

type rosterService interface {
	Load(ctx context.Context, teacherID, courseID string, opts service.SortOptions) (*dto.RosterResponse, error)
}

// RosterHandler serves the merged per-course student roster.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// Get godoc
// @Summary Merged student roster for a course
// @Tags Roster
// @Produce json
// @Param courseId path string true "Canvas course ID"
// @Param sort query string false "Sort field (name or last_activity)"
// @Param direction query string false "Sort direction (asc or desc)"
// @Param toggle query string false "Column toggled by the user; flips direction on the current field, resets a new field to ascending"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/roster [get]
func (h *RosterHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courseID := strings.TrimSpace(c.Param("courseId"))
	if courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseId is required"))
		return
	}
	opts := service.SortOptions{
		Field:     c.Query("sort"),
		Direction: c.Query("direction"),
	}
	// toggle carries the column header the user clicked; sort/direction carry
	// the state the client was showing when they clicked it.
	if field := c.Query("toggle"); field != "" {
		opts = service.NextSort(opts, field)
	}
	roster, err := h.service.Load(c.Request.Context(), identity.TeacherID, courseID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster)
}
