package models

// Course is a Canvas course as reported by the workflow backend. Read-only;
// the whole list is replaced on every fetch.
type Course struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CourseSnapshot is a course list together with its sync metadata. LastSyncedAt
// is passed through verbatim; the backend owns its format.
type CourseSnapshot struct {
	Courses      []Course `json:"courses"`
	LastSyncedAt string   `json:"last_synced_at,omitempty"`
	Stale        bool     `json:"stale"`
}
