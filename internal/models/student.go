package models

import "time"

// AttendanceRisk classifies a student's attendance trend. Computed by the
// workflow backend; this service only maps it to display state.
type AttendanceRisk string

const (
	AttendanceRiskNone   AttendanceRisk = "none"
	AttendanceRiskMedium AttendanceRisk = "medium"
	AttendanceRiskHigh   AttendanceRisk = "high"
	AttendanceRiskNoData AttendanceRisk = "no_attendance_yet"
)

// Student is one enrolled student's activity/attendance record.
// StudentCanvasID is unique within a course.
type Student struct {
	StudentCanvasID int64          `json:"student_canvas_id"`
	Name            string         `json:"name"`
	Email           *string        `json:"email"`
	EmailAvailable  bool           `json:"email_available"`
	LastActivityAt  *time.Time     `json:"last_activity_at"`
	InactiveDays    *int           `json:"inactive_days"`
	Inactive7Plus   bool           `json:"inactive_7_plus"`
	LastAttendedAt  *time.Time     `json:"last_attended_at"`
	AttendanceDays  *int           `json:"attendance_days"`
	AttendanceRisk  AttendanceRisk `json:"attendance_risk"`
}

// MissingAssignment is an assignment a student has not submitted by its due date.
type MissingAssignment struct {
	AssignmentID   int64      `json:"assignment_id"`
	Title          string     `json:"title"`
	DueAt          *time.Time `json:"due_at"`
	PointsPossible *float64   `json:"points_possible"`
	PreviewURL     string     `json:"preview_url"`
}

// StudentSubmission is a student's submission/grade record, joined to Student
// on StudentCanvasID.
type StudentSubmission struct {
	StudentCanvasID         int64               `json:"student_canvas_id"`
	Name                    string              `json:"name"`
	EnrollmentState         string              `json:"enrollment_state"`
	MissingAssignmentsCount int                 `json:"missing_assignments_count"`
	HasMissingAssignments   bool                `json:"has_missing_assignments"`
	MissingAssignments      []MissingAssignment `json:"missing_assignments"`
	CurrentScore            *float64            `json:"current_score"`
	FinalScore              *float64            `json:"final_score"`
	GradeURL                string              `json:"grade_url"`
}

// RosterRecipient is the slim student projection carried by reminder sends.
// The backend fans a single reminder out to every eligible recipient itself.
type RosterRecipient struct {
	StudentCanvasID int64   `json:"student_canvas_id"`
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	EmailAvailable  bool    `json:"email_available"`
}
