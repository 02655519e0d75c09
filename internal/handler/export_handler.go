package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/service"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/response"
)

type exportService interface {
	RosterExport(ctx context.Context, teacherID, courseID string, opts service.SortOptions, format service.ExportFormat) (*service.ExportFile, error)
}

// ExportHandler streams roster downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Roster godoc
// @Summary Download the course roster as CSV or PDF
// @Tags Roster
// @Produce octet-stream
// @Param courseId path string true "Canvas course ID"
// @Param format query string false "csv or pdf (default csv)"
// @Param sort query string false "Sort field (name or last_activity)"
// @Param direction query string false "Sort direction (asc or desc)"
// @Success 200 {file} binary
// @Router /courses/{courseId}/roster/export [get]
func (h *ExportHandler) Roster(c *gin.Context) {
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
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	opts := service.SortOptions{
		Field:     c.Query("sort"),
		Direction: c.Query("direction"),
	}

	file, err := h.service.RosterExport(c.Request.Context(), identity.TeacherID, courseID, opts, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
