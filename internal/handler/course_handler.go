package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/response"
)

type courseService interface {
	Load(ctx context.Context, teacherID string) (*dto.CoursesResponse, error)
	Refresh(ctx context.Context, teacherID string) error
}

// CourseHandler exposes the teacher's course list and manual sync refresh.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary Teacher's course list with sync metadata
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.service.Load(c.Request.Context(), identity.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Refresh godoc
// @Summary Trigger a manual course sync
// @Tags Courses
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/refresh [post]
func (h *CourseHandler) Refresh(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Refresh(c.Request.Context(), identity.TeacherID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.RefreshAccepted{Refreshing: true})
}
