package models

import "time"

// DueStatus classifies an assignment's due date relative to now. Computed by
// the workflow backend.
type DueStatus string

const (
	DueStatusOverdue   DueStatus = "overdue"
	DueStatusDueToday  DueStatus = "due_today"
	DueStatusDueSoon   DueStatus = "due_soon"
	DueStatusFuture    DueStatus = "future"
	DueStatusNoDueDate DueStatus = "no_due_date"
)

// Assignment is one course assessment with submission progress counts.
type Assignment struct {
	AssignmentID   int64      `json:"assignment_id"`
	Title          string     `json:"title"`
	DueAt          *time.Time `json:"due_at"`
	PointsPossible *float64   `json:"points_possible"`
	AssignmentURL  string     `json:"assignment_url"`
	DaysUntilDue   *int       `json:"days_until_due"`
	DueStatus      DueStatus  `json:"due_status"`
	TotalStudents  int        `json:"total_students"`
	SubmittedCount int        `json:"submitted_count"`
	PendingCount   int        `json:"pending_count"`
}
