package canvas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{BaseURL: server.URL})
}

func TestCoursesParsesSyncMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses", r.URL.Path)
		assert.Equal(t, "t-1", r.URL.Query().Get("teacher_id"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"courses":      []map[string]interface{}{{"id": 42, "name": "Algebra"}},
			"lastSyncedAt": "2026-02-01T08:00:00Z",
			"stale":        true,
		})
	})

	snapshot, err := client.Courses(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Courses, 1)
	assert.Equal(t, int64(42), snapshot.Courses[0].ID)
	assert.Equal(t, "2026-02-01T08:00:00Z", snapshot.LastSyncedAt)
	assert.True(t, snapshot.Stale)
}

func TestNonSuccessStatusIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Courses(context.Background(), "t-1")
	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_ERROR", appErrors.FromError(err).Code)
}

func TestStudentsPassesCourseQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students", r.URL.Path)
		assert.Equal(t, "c-9", r.URL.Query().Get("course_id_canvas"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"students": []map[string]interface{}{
				{"student_canvas_id": 7, "name": "Ana", "email_available": true},
			},
		})
	})

	students, err := client.Students(context.Background(), "t-1", "c-9")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(7), students[0].StudentCanvasID)
	assert.True(t, students[0].EmailAvailable)
}

func TestTokenStatusRequiresOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "error"})
	})

	_, err := client.TokenStatus(context.Background(), "t-1")
	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_ERROR", appErrors.FromError(err).Code)
}

func TestSaveTokenReturnsMaskedTail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t-1", body["teacher_id"])
		assert.Equal(t, "canvas-token-1234", body["canvas_token"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "last4": "1234"})
	})

	status, err := client.SaveToken(context.Background(), "t-1", "canvas-token-1234")
	require.NoError(t, err)
	assert.True(t, status.HasToken)
	assert.Equal(t, "1234", status.Last4)
}

func TestSaveTokenPropagatesBackendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "invalid", "message": "token rejected by Canvas"})
	})

	_, err := client.SaveToken(context.Background(), "t-1", "bad")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "UPSTREAM_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "token rejected by Canvas")
}

func TestSendContactEmailOnlySentSucceeds(t *testing.T) {
	status := "queued"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	err := client.SendContactEmail(context.Background(), ContactSendRequest{TeacherID: "t-1", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Equal(t, "SEND_FAILED", appErrors.FromError(err).Code)

	status = "sent"
	require.NoError(t, client.SendContactEmail(context.Background(), ContactSendRequest{TeacherID: "t-1", Subject: "s", Body: "b"}))
}

func TestSendReminderSerializesRoster(t *testing.T) {
	var payload struct {
		TeacherEmail string                   `json:"teacher_email"`
		Students     []models.RosterRecipient `json:"students"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assignments/remind/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
	})

	err := client.SendReminder(context.Background(), ReminderSendRequest{
		TeacherEmail: "teacher@school.edu",
		Students: []models.RosterRecipient{
			{StudentCanvasID: 1, Name: "Ana", EmailAvailable: true},
			{StudentCanvasID: 2, Name: "Ben"},
		},
		Subject: "Reminder",
		Body:    "Essay is due soon",
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.edu", payload.TeacherEmail)
	assert.Len(t, payload.Students, 2)
}
