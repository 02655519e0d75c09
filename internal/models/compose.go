package models

import "time"

// ComposeKind distinguishes the two flavours of the shared compose workflow.
type ComposeKind string

const (
	ComposeKindContact  ComposeKind = "contact"
	ComposeKindReminder ComposeKind = "reminder"
)

// ComposeState is the per-session state machine position.
// opening → editable → sending → closed, with failures falling back to editable.
type ComposeState string

const (
	ComposeStateOpening  ComposeState = "opening"
	ComposeStateEditable ComposeState = "editable"
	ComposeStateSending  ComposeState = "sending"
	ComposeStateClosed   ComposeState = "closed"
)

// Draft is the editable subject/body pair. Scratch state only; discarded when
// the session closes.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// StudentContext is the situational context attached to contact-student
// draft generation and sending.
type StudentContext struct {
	InactiveDays             *int           `json:"inactive_days"`
	AttendanceDays           *int           `json:"attendance_days"`
	AttendanceRisk           AttendanceRisk `json:"attendance_risk"`
	MissingAssignmentsCount  int            `json:"missing_assignments_count"`
	MissingAssignmentsTitles []string       `json:"missing_assignments_titles"`
	CurrentScore             *float64       `json:"current_score"`
	FinalScore               *float64       `json:"final_score"`
}

// ReminderAssignment is the assignment metadata carried by reminder drafts.
type ReminderAssignment struct {
	AssignmentID   int64      `json:"assignment_id"`
	Title          string     `json:"title"`
	DueAt          *time.Time `json:"due_at"`
	PointsPossible *float64   `json:"points_possible"`
}

// ComposeSession is one compose-and-send interaction. Held in memory for the
// session TTL and discarded on close.
type ComposeSession struct {
	ID        string       `json:"id"`
	Kind      ComposeKind  `json:"kind"`
	State     ComposeState `json:"state"`
	TeacherID string       `json:"-"`
	CourseID  string       `json:"course_id"`

	Draft      Draft  `json:"draft"`
	DraftError string `json:"draft_error,omitempty"`

	// Contact sessions.
	StudentCanvasID int64          `json:"student_canvas_id,omitempty"`
	StudentName     string         `json:"student_name,omitempty"`
	StudentEmail    *string        `json:"student_email,omitempty"`
	Context         StudentContext `json:"-"`

	// Reminder sessions.
	Assignment ReminderAssignment `json:"assignment,omitempty"`
	Recipients []RosterRecipient  `json:"-"`

	CourseName string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"-"`
}
