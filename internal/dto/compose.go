package dto

import "github.com/progressnav/canvas-pulse-api/internal/models"

// OpenContactRequest starts a compose session targeting one student.
type OpenContactRequest struct {
	CourseID        string `json:"courseId" binding:"required"`
	StudentCanvasID int64  `json:"studentCanvasId" binding:"required"`
}

// OpenReminderRequest starts a reminder session for one assignment. The
// recipient roster is resolved server-side at send time.
type OpenReminderRequest struct {
	CourseID     string `json:"courseId" binding:"required"`
	AssignmentID int64  `json:"assignmentId" binding:"required"`
}

// UpdateDraftRequest replaces the session's editable subject and body.
type UpdateDraftRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ComposeSessionResponse is the client-visible view of a compose session.
type ComposeSessionResponse struct {
	SessionID  string              `json:"sessionId"`
	Kind       models.ComposeKind  `json:"kind"`
	State      models.ComposeState `json:"state"`
	CourseID   string              `json:"courseId"`
	Draft      models.Draft        `json:"draft"`
	DraftError string              `json:"draftError,omitempty"`

	StudentCanvasID int64  `json:"studentCanvasId,omitempty"`
	StudentName     string `json:"studentName,omitempty"`

	Assignment *models.ReminderAssignment `json:"assignment,omitempty"`

	CanSend bool `json:"canSend"`
}

// SendResult reports the outcome of a send attempt. Sent is true only when
// the backend answered with status "sent".
type SendResult struct {
	Sent       bool                `json:"sent"`
	State      models.ComposeState `json:"state"`
	Recipients int                 `json:"recipients,omitempty"`
}
