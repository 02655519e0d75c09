package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type rosterLoader interface {
	Load(ctx context.Context, teacherID, courseID string, opts SortOptions) (*dto.RosterResponse, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a course roster as a downloadable CSV or PDF. Files
// are rendered per request and streamed back; nothing is persisted.
type ExportService struct {
	roster rosterLoader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

func NewExportService(roster rosterLoader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{roster: roster, csv: csv, pdf: pdf, logger: logger}
}

// RosterExport renders the course roster in the requested format, applying
// the same sort the teacher sees on screen.
func (s *ExportService) RosterExport(ctx context.Context, teacherID, courseID string, opts SortOptions, format ExportFormat) (*ExportFile, error) {
	roster, err := s.roster.Load(ctx, teacherID, courseID, opts)
	if err != nil {
		return nil, err
	}

	table := buildRosterTable(roster, courseID)
	stamp := time.Now().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s-%s.csv", courseID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s-%s.pdf", courseID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildRosterTable(roster *dto.RosterResponse, courseID string) export.Table {
	table := export.Table{
		Title: fmt.Sprintf("Course %s Roster", courseID),
		Columns: []string{
			"Student ID", "Name", "Email", "Last Activity", "Inactivity", "Attendance", "Missing Assignments", "Current Score", "Final Score",
		},
	}
	for _, row := range roster.Students {
		email := ""
		if row.Email != nil {
			email = *row.Email
		}
		record := []string{
			strconv.FormatInt(row.StudentCanvasID, 10),
			row.Name,
			email,
			row.LastActivityText,
			row.ActivityBadge,
			row.AttendanceBadge,
		}
		if row.Submission != nil {
			record = append(record,
				strconv.Itoa(row.Submission.MissingAssignmentsCount),
				formatScore(row.Submission.CurrentScore),
				formatScore(row.Submission.FinalScore),
			)
		}
		table.Records = append(table.Records, record)
	}
	return table
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *score), "0"), ".")
}
