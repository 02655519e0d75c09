package dto

import (
	"time"

	"github.com/progressnav/canvas-pulse-api/internal/models"
)

// RosterResponse is the merged per-course student view. Submissions and
// assignments degrade independently: when either secondary fetch failed the
// corresponding section carries placeholders instead of failing the response.
type RosterResponse struct {
	CourseID    string          `json:"courseId"`
	Students    []RosterRow     `json:"students"`
	Assignments []AssignmentRow `json:"assignments"`

	SubmissionsAvailable bool `json:"submissionsAvailable"`
	AssignmentsAvailable bool `json:"assignmentsAvailable"`

	SortField     string `json:"sortField"`
	SortDirection string `json:"sortDirection"`
}

// RosterRow is one student joined with their submission summary.
type RosterRow struct {
	StudentCanvasID int64   `json:"studentCanvasId"`
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	EmailAvailable  bool    `json:"emailAvailable"`
	// Contactable mirrors EmailAvailable; the backend flag is authoritative,
	// not the presence of an email string.
	Contactable bool   `json:"contactable"`
	ContactNote string `json:"contactNote,omitempty"`

	LastActivityAt   *time.Time `json:"lastActivityAt"`
	LastActivityText string     `json:"lastActivityText"`
	InactiveDays     *int       `json:"inactiveDays"`
	ActivityFlagged  bool       `json:"activityFlagged"`
	ActivityBadge    string     `json:"activityBadge,omitempty"`

	AttendanceRisk  models.AttendanceRisk `json:"attendanceRisk"`
	AttendanceDays  *int                  `json:"attendanceDays"`
	AttendanceBadge string                `json:"attendanceBadge"`

	// Submission is nil while no submission record matched the student, in
	// which case SubmissionPlaceholder carries the loading text.
	Submission            *SubmissionCell `json:"submission"`
	SubmissionPlaceholder string          `json:"submissionPlaceholder,omitempty"`
}

// SubmissionCell summarises a student's assignment standing.
type SubmissionCell struct {
	MissingAssignmentsCount int                        `json:"missingAssignmentsCount"`
	HasMissingAssignments   bool                       `json:"hasMissingAssignments"`
	MissingAssignments      []models.MissingAssignment `json:"missingAssignments"`
	CurrentScore            *float64                   `json:"currentScore"`
	FinalScore              *float64                   `json:"finalScore"`
	GradeURL                string                     `json:"gradeUrl,omitempty"`
}

// AssignmentRow is one course assignment with its due-date badge.
type AssignmentRow struct {
	AssignmentID   int64            `json:"assignmentId"`
	Title          string           `json:"title"`
	DueAt          *time.Time       `json:"dueAt"`
	PointsPossible *float64         `json:"pointsPossible"`
	AssignmentURL  string           `json:"assignmentUrl,omitempty"`
	DaysUntilDue   *int             `json:"daysUntilDue"`
	DueStatus      models.DueStatus `json:"dueStatus"`
	DueBadge       string           `json:"dueBadge"`
	TotalStudents  int              `json:"totalStudents"`
	SubmittedCount int              `json:"submittedCount"`
	PendingCount   int              `json:"pendingCount"`
	// Remindable is false for overdue assignments; reminders only make sense
	// while students can still submit.
	Remindable bool `json:"remindable"`
}
