package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressnav/canvas-pulse-api/internal/canvas"
	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

type fakeComposeGateway struct {
	draft    models.Draft
	draftErr error
	sendErr  error

	contactSends  []canvas.ContactSendRequest
	reminderSends []canvas.ReminderSendRequest
	draftCalls    int
}

func (f *fakeComposeGateway) GenerateContactDraft(context.Context, canvas.ContactDraftRequest) (models.Draft, error) {
	f.draftCalls++
	return f.draft, f.draftErr
}

func (f *fakeComposeGateway) SendContactEmail(_ context.Context, req canvas.ContactSendRequest) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.contactSends = append(f.contactSends, req)
	return nil
}

func (f *fakeComposeGateway) GenerateReminderDraft(context.Context, canvas.ReminderDraftRequest) (models.Draft, error) {
	f.draftCalls++
	return f.draft, f.draftErr
}

func (f *fakeComposeGateway) SendReminder(_ context.Context, req canvas.ReminderSendRequest) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.reminderSends = append(f.reminderSends, req)
	return nil
}

type fakeComposeRoster struct {
	student    models.Student
	studentErr error
	assignment models.Assignment
	recipients []models.RosterRecipient
}

func (f *fakeComposeRoster) ContactContext(context.Context, string, string, int64) (models.Student, models.StudentContext, error) {
	return f.student, models.StudentContext{}, f.studentErr
}

func (f *fakeComposeRoster) Assignment(context.Context, string, string, int64) (models.Assignment, error) {
	return f.assignment, nil
}

func (f *fakeComposeRoster) Recipients(context.Context, string, string) ([]models.RosterRecipient, error) {
	return f.recipients, nil
}

type fakeCourseNamer struct{}

func (fakeCourseNamer) CourseName(context.Context, string, string) string { return "Algebra" }

func testIdentity() models.Identity {
	return models.Identity{TeacherID: "t-1", Email: "teacher@school.edu", FirstName: "Pat"}
}

func newComposeServiceForTest(gateway *fakeComposeGateway, roster *fakeComposeRoster) *ComposeService {
	return NewComposeService(gateway, roster, fakeCourseNamer{}, ComposeServiceConfig{
		SessionTTL:      time.Minute,
		CleanupInterval: time.Minute,
	}, nil)
}

func TestComposeOpenContactPopulatesDraft(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Checking in", Body: "Hi Ana"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.ComposeStateEditable, session.State)
	assert.Equal(t, "Checking in", session.Draft.Subject)
	assert.Empty(t, session.DraftError)
	assert.True(t, session.CanSend)
	assert.Equal(t, int64(7), session.StudentCanvasID)
}

func TestComposeDraftFailureKeepsSessionOpen(t *testing.T) {
	gateway := &fakeComposeGateway{draftErr: errors.New("generator down")}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.ComposeStateEditable, session.State)
	assert.NotEmpty(t, session.DraftError)
	assert.False(t, session.CanSend)

	// A blank draft cannot be sent.
	_, err = svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)

	// The teacher can still type a message by hand and send it.
	gateway.draftErr = nil
	_, err = svc.UpdateDraft("t-1", session.SessionID, dto.UpdateDraftRequest{Subject: "Manual", Body: "Written by hand"})
	require.NoError(t, err)
	result, err := svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.True(t, result.Sent)
}

func TestComposeRegenerateOverwritesDraft(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "v1", Body: "first"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	gateway.draft = models.Draft{Subject: "v2", Body: "second"}
	session, err = svc.Regenerate(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "v2", session.Draft.Subject)
	assert.Equal(t, 2, gateway.draftCalls)
}

func TestComposeRegenerateFailureKeepsPreviousDraft(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "v1", Body: "first"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	gateway.draftErr = errors.New("generator down")
	session, err = svc.Regenerate(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.ComposeStateEditable, session.State)
	assert.Equal(t, "v1", session.Draft.Subject)
	assert.NotEmpty(t, session.DraftError)
}

func TestComposeSendBlankAfterTrimRejected(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Checking in", Body: "Hi"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	_, err = svc.UpdateDraft("t-1", session.SessionID, dto.UpdateDraftRequest{Subject: "   ", Body: "\n\t"})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	assert.Empty(t, gateway.contactSends)
}

func TestComposeSendSuccessClosesAndDiscardsSession(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Checking in", Body: "Hi Ana"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana", Email: strPtr("ana@school.edu")}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	result, err := svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, models.ComposeStateClosed, result.State)
	require.Len(t, gateway.contactSends, 1)
	assert.Equal(t, "teacher@school.edu", gateway.contactSends[0].TeacherEmail)

	_, err = svc.Get("t-1", session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestComposeSendFailureReturnsToEditable(t *testing.T) {
	gateway := &fakeComposeGateway{
		draft:   models.Draft{Subject: "Checking in", Body: "Hi Ana"},
		sendErr: appErrors.Clone(appErrors.ErrSendFailed, `backend reported status "queued"`),
	}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "SEND_FAILED", appErrors.FromError(err).Code)

	// The session survives for a manual retry with the same draft.
	got, err := svc.Get("t-1", session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.ComposeStateEditable, got.State)
	assert.Equal(t, "Checking in", got.Draft.Subject)

	gateway.sendErr = nil
	result, err := svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.True(t, result.Sent)
}

func TestComposeReminderSendCarriesEntireRoster(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Reminder", Body: "Essay is due soon"}}
	roster := &fakeComposeRoster{
		assignment: models.Assignment{AssignmentID: 11, Title: "Essay"},
		recipients: []models.RosterRecipient{
			{StudentCanvasID: 1, Name: "Ana", EmailAvailable: true},
			{StudentCanvasID: 2, Name: "Ben", EmailAvailable: false},
			{StudentCanvasID: 3, Name: "Clara", EmailAvailable: true},
		},
	}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenReminder(context.Background(), testIdentity(), dto.OpenReminderRequest{CourseID: "c-1", AssignmentID: 11})
	require.NoError(t, err)
	require.NotNil(t, session.Assignment)
	assert.Equal(t, "Essay", session.Assignment.Title)

	result, err := svc.Send(context.Background(), testIdentity(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recipients)
	require.Len(t, gateway.reminderSends, 1)
	assert.Len(t, gateway.reminderSends[0].Students, 3)
	assert.Equal(t, "teacher@school.edu", gateway.reminderSends[0].TeacherEmail)
}

func TestComposeSessionsAreTeacherScoped(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Checking in", Body: "Hi"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := newComposeServiceForTest(gateway, roster)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	_, err = svc.Get("someone-else", session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestComposeExpiredSessionsEvicted(t *testing.T) {
	gateway := &fakeComposeGateway{draft: models.Draft{Subject: "Checking in", Body: "Hi"}}
	roster := &fakeComposeRoster{student: models.Student{StudentCanvasID: 7, Name: "Ana"}}
	svc := NewComposeService(gateway, roster, fakeCourseNamer{}, ComposeServiceConfig{
		SessionTTL:      time.Millisecond,
		CleanupInterval: time.Minute,
	}, nil)

	session, err := svc.OpenContact(context.Background(), testIdentity(), dto.OpenContactRequest{CourseID: "c-1", StudentCanvasID: 7})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	svc.evictExpired(time.Now())

	_, err = svc.Get("t-1", session.SessionID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
