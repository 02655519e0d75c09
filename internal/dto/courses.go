package dto

import "github.com/progressnav/canvas-pulse-api/internal/models"

// CoursesResponse carries the teacher's course list plus sync metadata.
type CoursesResponse struct {
	Courses      []models.Course `json:"courses"`
	LastSyncedAt string          `json:"lastSyncedAt,omitempty"`
	Stale        bool            `json:"stale"`
	Refreshing   bool            `json:"refreshing"`
}

// RefreshAccepted acknowledges a manual sync request.
type RefreshAccepted struct {
	Refreshing bool `json:"refreshing"`
}
