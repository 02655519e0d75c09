package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/progressnav/canvas-pulse-api/internal/canvas"
	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

type composeGateway interface {
	GenerateContactDraft(ctx context.Context, req canvas.ContactDraftRequest) (models.Draft, error)
	SendContactEmail(ctx context.Context, req canvas.ContactSendRequest) error
	GenerateReminderDraft(ctx context.Context, req canvas.ReminderDraftRequest) (models.Draft, error)
	SendReminder(ctx context.Context, req canvas.ReminderSendRequest) error
}

type composeRoster interface {
	ContactContext(ctx context.Context, teacherID, courseID string, studentCanvasID int64) (models.Student, models.StudentContext, error)
	Assignment(ctx context.Context, teacherID, courseID string, assignmentID int64) (models.Assignment, error)
	Recipients(ctx context.Context, teacherID, courseID string) ([]models.RosterRecipient, error)
}

type courseNamer interface {
	CourseName(ctx context.Context, teacherID, courseID string) string
}

// ComposeServiceConfig tunes session lifetime.
type ComposeServiceConfig struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// ComposeService runs the compose-and-send workflow shared by "contact
// student" and "send reminder". Each session moves through
// opening → editable → sending → closed; every failure lands the session
// back in editable so the teacher can retry by hand.
type ComposeService struct {
	gateway composeGateway
	roster  composeRoster
	courses courseNamer
	logger  *zap.Logger
	cfg     ComposeServiceConfig

	mu       sync.Mutex
	sessions map[string]*models.ComposeSession

	stopSweep chan struct{}
	sweepOnce sync.Once
}

func NewComposeService(gateway composeGateway, roster composeRoster, courses courseNamer, cfg ComposeServiceConfig, logger *zap.Logger) *ComposeService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComposeService{
		gateway:   gateway,
		roster:    roster,
		courses:   courses,
		logger:    logger,
		cfg:       cfg,
		sessions:  make(map[string]*models.ComposeSession),
		stopSweep: make(chan struct{}),
	}
}

// StartSweeper evicts expired sessions in the background until Stop is called.
func (s *ComposeService) StartSweeper() {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopSweep:
				return
			case <-ticker.C:
				s.evictExpired(time.Now())
			}
		}
	}()
}

// Stop halts the sweeper.
func (s *ComposeService) Stop() {
	s.sweepOnce.Do(func() { close(s.stopSweep) })
}

// OpenContact starts a contact-student session and generates the initial
// draft. Draft failure does not fail the call: the session opens editable
// with DraftError set so the teacher can regenerate or type by hand.
func (s *ComposeService) OpenContact(ctx context.Context, identity models.Identity, req dto.OpenContactRequest) (*dto.ComposeSessionResponse, error) {
	student, studentCtx, err := s.roster.ContactContext(ctx, identity.TeacherID, req.CourseID, req.StudentCanvasID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.ComposeSession{
		ID:              uuid.NewString(),
		Kind:            models.ComposeKindContact,
		State:           models.ComposeStateOpening,
		TeacherID:       identity.TeacherID,
		CourseID:        req.CourseID,
		StudentCanvasID: student.StudentCanvasID,
		StudentName:     student.Name,
		StudentEmail:    student.Email,
		Context:         studentCtx,
		CourseName:      s.courses.CourseName(ctx, identity.TeacherID, req.CourseID),
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.cfg.SessionTTL),
	}

	s.generateDraft(ctx, identity, session)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return buildSessionResponse(session), nil
}

// OpenReminder starts a reminder session for one assignment.
func (s *ComposeService) OpenReminder(ctx context.Context, identity models.Identity, req dto.OpenReminderRequest) (*dto.ComposeSessionResponse, error) {
	assignment, err := s.roster.Assignment(ctx, identity.TeacherID, req.CourseID, req.AssignmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.ComposeSession{
		ID:        uuid.NewString(),
		Kind:      models.ComposeKindReminder,
		State:     models.ComposeStateOpening,
		TeacherID: identity.TeacherID,
		CourseID:  req.CourseID,
		Assignment: models.ReminderAssignment{
			AssignmentID:   assignment.AssignmentID,
			Title:          assignment.Title,
			DueAt:          assignment.DueAt,
			PointsPossible: assignment.PointsPossible,
		},
		CourseName: s.courses.CourseName(ctx, identity.TeacherID, req.CourseID),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
	}

	s.generateDraft(ctx, identity, session)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return buildSessionResponse(session), nil
}

// Get returns the teacher's session.
func (s *ComposeService) Get(teacherID, sessionID string) (*dto.ComposeSessionResponse, error) {
	session, err := s.lookup(teacherID, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildSessionResponse(session), nil
}

// Regenerate re-runs draft generation with the session's original context,
// overwriting the current subject and body on success. Failure keeps the
// session editable with the previous draft intact and DraftError set.
func (s *ComposeService) Regenerate(ctx context.Context, identity models.Identity, sessionID string) (*dto.ComposeSessionResponse, error) {
	session, err := s.lookup(identity.TeacherID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if session.State != models.ComposeStateEditable {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrComposeState, "draft can only be regenerated while editable")
	}
	session.State = models.ComposeStateOpening
	s.mu.Unlock()

	s.generateDraft(ctx, identity, session)

	s.mu.Lock()
	defer s.mu.Unlock()
	return buildSessionResponse(session), nil
}

// UpdateDraft replaces the editable subject and body.
func (s *ComposeService) UpdateDraft(teacherID, sessionID string, req dto.UpdateDraftRequest) (*dto.ComposeSessionResponse, error) {
	session, err := s.lookup(teacherID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session.State != models.ComposeStateEditable {
		return nil, appErrors.Clone(appErrors.ErrComposeState, "draft is not editable in the current state")
	}
	session.Draft = models.Draft{Subject: req.Subject, Body: req.Body}
	session.DraftError = ""
	return buildSessionResponse(session), nil
}

// Send delivers the session's draft. Both subject and body must be non-blank
// after trimming. Only a backend status of "sent" succeeds; on success the
// session closes and its scratch state is discarded, on failure it returns to
// editable for manual retry.
func (s *ComposeService) Send(ctx context.Context, identity models.Identity, sessionID string) (*dto.SendResult, error) {
	session, err := s.lookup(identity.TeacherID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if session.State != models.ComposeStateEditable {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrComposeState, "session is not ready to send")
	}
	if !draftSendable(session.Draft) {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject and body must not be blank")
	}
	session.State = models.ComposeStateSending
	draft := session.Draft
	s.mu.Unlock()

	var recipients int
	switch session.Kind {
	case models.ComposeKindContact:
		err = s.gateway.SendContactEmail(ctx, canvas.ContactSendRequest{
			TeacherID:       identity.TeacherID,
			TeacherEmail:    identity.Email,
			CourseIDCanvas:  session.CourseID,
			StudentCanvasID: session.StudentCanvasID,
			StudentName:     session.StudentName,
			StudentEmail:    session.StudentEmail,
			Context:         session.Context,
			Subject:         draft.Subject,
			Body:            draft.Body,
		})
		recipients = 1
	case models.ComposeKindReminder:
		// The reminder payload always carries the entire current roster; the
		// backend decides who is eligible.
		var roster []models.RosterRecipient
		roster, err = s.roster.Recipients(ctx, identity.TeacherID, session.CourseID)
		if err == nil {
			recipients = len(roster)
			err = s.gateway.SendReminder(ctx, canvas.ReminderSendRequest{
				TeacherEmail: identity.Email,
				Students:     roster,
				Subject:      draft.Subject,
				Body:         draft.Body,
			})
		}
	default:
		err = appErrors.Clone(appErrors.ErrInternal, "unknown compose kind")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		session.State = models.ComposeStateEditable
		s.logger.Warn("compose send failed",
			zap.String("session_id", session.ID),
			zap.String("kind", string(session.Kind)),
			zap.Error(err),
		)
		return nil, err
	}

	session.State = models.ComposeStateClosed
	delete(s.sessions, session.ID)
	s.logger.Info("compose send delivered",
		zap.String("session_id", session.ID),
		zap.String("kind", string(session.Kind)),
		zap.Int("recipients", recipients),
	)
	return &dto.SendResult{Sent: true, State: models.ComposeStateClosed, Recipients: recipients}, nil
}

// Close discards a session without sending.
func (s *ComposeService) Close(teacherID, sessionID string) error {
	session, err := s.lookup(teacherID, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session.ID)
	return nil
}

// generateDraft fills the session draft from the backend. Failure never
// closes the session: it lands editable with DraftError set.
func (s *ComposeService) generateDraft(ctx context.Context, identity models.Identity, session *models.ComposeSession) {
	var (
		draft models.Draft
		err   error
	)
	switch session.Kind {
	case models.ComposeKindContact:
		draft, err = s.gateway.GenerateContactDraft(ctx, canvas.ContactDraftRequest{
			TeacherID:       identity.TeacherID,
			TeacherName:     identity.DisplayName(),
			CourseName:      session.CourseName,
			CourseIDCanvas:  session.CourseID,
			StudentCanvasID: session.StudentCanvasID,
			StudentName:     session.StudentName,
			StudentEmail:    session.StudentEmail,
			Context:         session.Context,
		})
	case models.ComposeKindReminder:
		draft, err = s.gateway.GenerateReminderDraft(ctx, canvas.ReminderDraftRequest{
			CourseName:  session.CourseName,
			TeacherName: identity.DisplayName(),
			Assignment:  session.Assignment,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session.State = models.ComposeStateEditable
	if err != nil {
		session.DraftError = "Draft could not be generated. Try again or write your own message."
		s.logger.Warn("draft generation failed",
			zap.String("session_id", session.ID),
			zap.String("kind", string(session.Kind)),
			zap.Error(err),
		)
		return
	}
	session.Draft = draft
	session.DraftError = ""
}

func (s *ComposeService) lookup(teacherID, sessionID string) (*models.ComposeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "compose session not found")
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "compose session expired")
	}
	return session, nil
}

func (s *ComposeService) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

func draftSendable(d models.Draft) bool {
	return strings.TrimSpace(d.Subject) != "" && strings.TrimSpace(d.Body) != ""
}

func buildSessionResponse(session *models.ComposeSession) *dto.ComposeSessionResponse {
	resp := &dto.ComposeSessionResponse{
		SessionID:  session.ID,
		Kind:       session.Kind,
		State:      session.State,
		CourseID:   session.CourseID,
		Draft:      session.Draft,
		DraftError: session.DraftError,
		CanSend:    session.State == models.ComposeStateEditable && draftSendable(session.Draft),
	}
	switch session.Kind {
	case models.ComposeKindContact:
		resp.StudentCanvasID = session.StudentCanvasID
		resp.StudentName = session.StudentName
	case models.ComposeKindReminder:
		assignment := session.Assignment
		resp.Assignment = &assignment
	}
	return resp
}
