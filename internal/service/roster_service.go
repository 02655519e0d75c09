package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

const (
	SortByName         = "name"
	SortByLastActivity = "last_activity"

	SortAsc  = "asc"
	SortDesc = "desc"

	submissionPendingText = "Loading assignment data..."
	emailUnavailableNote  = "This student has no email confirmed in Canvas, so they cannot be contacted via email from this tool."
)

type rosterGateway interface {
	Students(ctx context.Context, teacherID, courseID string) ([]models.Student, error)
	Submissions(ctx context.Context, teacherID, courseID string) ([]models.StudentSubmission, error)
	Assignments(ctx context.Context, teacherID, courseID string) ([]models.Assignment, error)
}

// SortOptions selects roster ordering. Zero value means name ascending.
type SortOptions struct {
	Field     string
	Direction string
}

// NextSort computes the sort state after the user toggles a column: picking
// the current field flips direction, picking a new field resets to ascending.
func NextSort(current SortOptions, field string) SortOptions {
	current = normalizeSort(current)
	field = normalizeSortField(field)
	if field == current.Field {
		dir := SortAsc
		if current.Direction == SortAsc {
			dir = SortDesc
		}
		return SortOptions{Field: field, Direction: dir}
	}
	return SortOptions{Field: field, Direction: SortAsc}
}

// RosterService merges the three per-course collections into the teacher's
// roster view. Students is the primary collection; submissions and
// assignments degrade to placeholders when their fetch fails.
type RosterService struct {
	gateway  rosterGateway
	logger   *zap.Logger
	collator *collate.Collator
	mu       sync.Mutex
}

func NewRosterService(gateway rosterGateway, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		gateway:  gateway,
		logger:   logger,
		collator: collate.New(language.English, collate.Loose),
	}
}

// Load fetches students, submissions and assignments concurrently and returns
// the merged, sorted roster. A students failure fails the whole call; the
// secondary collections are best effort.
func (s *RosterService) Load(ctx context.Context, teacherID, courseID string, opts SortOptions) (*dto.RosterResponse, error) {
	if teacherID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id and course id are required")
	}
	opts = normalizeSort(opts)

	var (
		wg          sync.WaitGroup
		students    []models.Student
		studentsErr error
		submissions []models.StudentSubmission
		subsErr     error
		assignments []models.Assignment
		asgErr      error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		students, studentsErr = s.gateway.Students(ctx, teacherID, courseID)
	}()
	go func() {
		defer wg.Done()
		submissions, subsErr = s.gateway.Submissions(ctx, teacherID, courseID)
	}()
	go func() {
		defer wg.Done()
		assignments, asgErr = s.gateway.Assignments(ctx, teacherID, courseID)
	}()
	wg.Wait()

	if studentsErr != nil {
		return nil, studentsErr
	}
	if subsErr != nil {
		s.logger.Warn("submissions fetch degraded", zap.String("course_id", courseID), zap.Error(subsErr))
	}
	if asgErr != nil {
		s.logger.Warn("assignments fetch degraded", zap.String("course_id", courseID), zap.Error(asgErr))
	}

	bySubmission := indexSubmissions(submissions)

	rows := make([]dto.RosterRow, 0, len(students))
	for _, st := range students {
		rows = append(rows, s.buildRow(st, bySubmission))
	}
	s.sortRows(rows, opts)

	asgRows := make([]dto.AssignmentRow, 0, len(assignments))
	for _, a := range sortAssignmentsByDue(assignments) {
		asgRows = append(asgRows, buildAssignmentRow(a))
	}

	return &dto.RosterResponse{
		CourseID:             courseID,
		Students:             rows,
		Assignments:          asgRows,
		SubmissionsAvailable: subsErr == nil,
		AssignmentsAvailable: asgErr == nil,
		SortField:            opts.Field,
		SortDirection:        opts.Direction,
	}, nil
}

// Recipients returns the course's full roster as reminder recipients. The
// backend filters eligibility itself, so every student is included.
func (s *RosterService) Recipients(ctx context.Context, teacherID, courseID string) ([]models.RosterRecipient, error) {
	students, err := s.gateway.Students(ctx, teacherID, courseID)
	if err != nil {
		return nil, err
	}
	recipients := make([]models.RosterRecipient, 0, len(students))
	for _, st := range students {
		recipients = append(recipients, models.RosterRecipient{
			StudentCanvasID: st.StudentCanvasID,
			Name:            st.Name,
			Email:           st.Email,
			EmailAvailable:  st.EmailAvailable,
		})
	}
	return recipients, nil
}

// ContactContext assembles the draft-generation context for contacting one
// student. The submission summary is best effort; a degraded submissions
// fetch yields a context without assignment data rather than an error.
func (s *RosterService) ContactContext(ctx context.Context, teacherID, courseID string, studentCanvasID int64) (models.Student, models.StudentContext, error) {
	var (
		wg          sync.WaitGroup
		students    []models.Student
		studentsErr error
		submissions []models.StudentSubmission
		subsErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		students, studentsErr = s.gateway.Students(ctx, teacherID, courseID)
	}()
	go func() {
		defer wg.Done()
		submissions, subsErr = s.gateway.Submissions(ctx, teacherID, courseID)
	}()
	wg.Wait()

	if studentsErr != nil {
		return models.Student{}, models.StudentContext{}, studentsErr
	}
	if subsErr != nil {
		s.logger.Warn("submission context degraded", zap.Int64("student_canvas_id", studentCanvasID), zap.Error(subsErr))
	}

	var student *models.Student
	for i := range students {
		if students[i].StudentCanvasID == studentCanvasID {
			student = &students[i]
			break
		}
	}
	if student == nil {
		return models.Student{}, models.StudentContext{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found in course %s", studentCanvasID, courseID))
	}

	studentCtx := models.StudentContext{
		InactiveDays:   student.InactiveDays,
		AttendanceDays: student.AttendanceDays,
		AttendanceRisk: student.AttendanceRisk,
	}
	if sub, ok := indexSubmissions(submissions)[studentCanvasID]; ok {
		studentCtx.MissingAssignmentsCount = sub.MissingAssignmentsCount
		for _, ma := range sub.MissingAssignments {
			studentCtx.MissingAssignmentsTitles = append(studentCtx.MissingAssignmentsTitles, ma.Title)
		}
		studentCtx.CurrentScore = sub.CurrentScore
		studentCtx.FinalScore = sub.FinalScore
	}
	return *student, studentCtx, nil
}

// Assignment resolves one assignment by id, for reminder sessions.
func (s *RosterService) Assignment(ctx context.Context, teacherID, courseID string, assignmentID int64) (models.Assignment, error) {
	assignments, err := s.gateway.Assignments(ctx, teacherID, courseID)
	if err != nil {
		return models.Assignment{}, err
	}
	for _, a := range assignments {
		if a.AssignmentID == assignmentID {
			return a, nil
		}
	}
	return models.Assignment{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %d not found in course %s", assignmentID, courseID))
}

func (s *RosterService) buildRow(st models.Student, bySubmission map[int64]models.StudentSubmission) dto.RosterRow {
	row := dto.RosterRow{
		StudentCanvasID:  st.StudentCanvasID,
		Name:             st.Name,
		Email:            st.Email,
		EmailAvailable:   st.EmailAvailable,
		Contactable:      st.EmailAvailable,
		LastActivityAt:   st.LastActivityAt,
		LastActivityText: lastActivityText(st.LastActivityAt),
		InactiveDays:     st.InactiveDays,
		ActivityFlagged:  ActivityFlagged(st),
		ActivityBadge:    ActivityBadge(st),
		AttendanceRisk:   st.AttendanceRisk,
		AttendanceDays:   st.AttendanceDays,
		AttendanceBadge:  AttendanceBadge(st.AttendanceRisk, st.AttendanceDays),
	}
	if !st.EmailAvailable {
		row.ContactNote = emailUnavailableNote
	}
	if sub, ok := bySubmission[st.StudentCanvasID]; ok {
		missing := sub.MissingAssignments
		if missing == nil {
			missing = []models.MissingAssignment{}
		}
		row.Submission = &dto.SubmissionCell{
			MissingAssignmentsCount: sub.MissingAssignmentsCount,
			HasMissingAssignments:   sub.HasMissingAssignments,
			MissingAssignments:      missing,
			CurrentScore:            sub.CurrentScore,
			FinalScore:              sub.FinalScore,
			GradeURL:                sub.GradeURL,
		}
	} else {
		row.SubmissionPlaceholder = submissionPendingText
	}
	return row
}

func (s *RosterService) sortRows(rows []dto.RosterRow, opts SortOptions) {
	desc := opts.Direction == SortDesc
	var less func(a, b dto.RosterRow) bool
	switch opts.Field {
	case SortByLastActivity:
		less = func(a, b dto.RosterRow) bool {
			return activityEpoch(a.LastActivityAt).Before(activityEpoch(b.LastActivityAt))
		}
	default:
		less = func(a, b dto.RosterRow) bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.collator.CompareString(a.Name, b.Name) < 0
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// AttendanceBadge maps the backend's risk classification to display text.
func AttendanceBadge(risk models.AttendanceRisk, days *int) string {
	n := 0
	if days != nil {
		n = *days
	}
	switch risk {
	case models.AttendanceRiskHigh:
		return fmt.Sprintf("No attendance for %d days", n)
	case models.AttendanceRiskMedium:
		return fmt.Sprintf("Low attendance (%d days)", n)
	case models.AttendanceRiskNone:
		return "Attending"
	default:
		return "Attendance data not available yet"
	}
}

// ActivityFlagged reports whether a student's inactivity warrants a warning:
// either the backend flagged seven-plus inactive days, or the student has
// never logged in and has been inactive at least a week.
func ActivityFlagged(st models.Student) bool {
	if st.Inactive7Plus && st.InactiveDays != nil && *st.InactiveDays > 0 {
		return true
	}
	return st.LastActivityAt == nil && st.InactiveDays != nil && *st.InactiveDays >= 7
}

// ActivityBadge returns the inactivity warning text, or empty when the
// student is not flagged.
func ActivityBadge(st models.Student) string {
	if st.Inactive7Plus && st.InactiveDays != nil && *st.InactiveDays > 0 {
		return fmt.Sprintf("Inactive for %d days", *st.InactiveDays)
	}
	if st.LastActivityAt == nil && st.InactiveDays != nil && *st.InactiveDays >= 7 {
		return "No activity"
	}
	return ""
}

// DueBadge maps an assignment's due status to display text.
func DueBadge(a models.Assignment) string {
	days := 0
	if a.DaysUntilDue != nil {
		days = *a.DaysUntilDue
	}
	if a.DueAt == nil || a.DueStatus == models.DueStatusNoDueDate {
		return "No due date"
	}
	switch a.DueStatus {
	case models.DueStatusOverdue:
		if days < 0 {
			days = -days
		}
		return fmt.Sprintf("Overdue (%d days ago)", days)
	case models.DueStatusDueToday:
		return "Due today"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}

func buildAssignmentRow(a models.Assignment) dto.AssignmentRow {
	return dto.AssignmentRow{
		AssignmentID:   a.AssignmentID,
		Title:          a.Title,
		DueAt:          a.DueAt,
		PointsPossible: a.PointsPossible,
		AssignmentURL:  a.AssignmentURL,
		DaysUntilDue:   a.DaysUntilDue,
		DueStatus:      a.DueStatus,
		DueBadge:       DueBadge(a),
		TotalStudents:  a.TotalStudents,
		SubmittedCount: a.SubmittedCount,
		PendingCount:   a.PendingCount,
		Remindable:     a.DueStatus != models.DueStatusOverdue,
	}
}

// sortAssignmentsByDue orders assignments by due date ascending. Assignments
// without a due date sort after all dated ones, keeping fetch order among
// themselves.
func sortAssignmentsByDue(assignments []models.Assignment) []models.Assignment {
	sorted := make([]models.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].DueAt, sorted[j].DueAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return sorted
}

func indexSubmissions(submissions []models.StudentSubmission) map[int64]models.StudentSubmission {
	idx := make(map[int64]models.StudentSubmission, len(submissions))
	for _, sub := range submissions {
		idx[sub.StudentCanvasID] = sub
	}
	return idx
}

func lastActivityText(t *time.Time) string {
	if t == nil {
		return "Never logged in"
	}
	return t.Format("02 Jan 2006, 03:04 PM")
}

func activityEpoch(t *time.Time) time.Time {
	if t == nil {
		return time.Unix(0, 0).UTC()
	}
	return *t
}

func normalizeSort(opts SortOptions) SortOptions {
	opts.Field = normalizeSortField(opts.Field)
	if dir := strings.ToLower(opts.Direction); dir == SortDesc {
		opts.Direction = SortDesc
	} else {
		opts.Direction = SortAsc
	}
	return opts
}

func normalizeSortField(field string) string {
	switch strings.ToLower(field) {
	case SortByLastActivity, "lastactivity", "last_activity_at":
		return SortByLastActivity
	default:
		return SortByName
	}
}
