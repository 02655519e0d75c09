package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

// metricsObserver records upstream webhook call timings.
type metricsObserver interface {
	ObserveUpstreamRequest(endpoint string, status int, duration time.Duration)
}

// Client is the thin HTTP/JSON gateway over the workflow backend's Canvas
// webhook endpoints. It owns no state and applies no retries; every failure
// is reported to the caller as a typed upstream error.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics metricsObserver
}

// ClientConfig tunes the gateway.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics metricsObserver
}

// NewClient constructs a gateway client with sane defaults.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

type coursesResponse struct {
	Status       string          `json:"status"`
	Courses      []models.Course `json:"courses"`
	LastSyncedAt string          `json:"lastSyncedAt"`
	Stale        bool            `json:"stale"`
}

// Courses fetches the teacher's course list with attached sync metadata.
func (c *Client) Courses(ctx context.Context, teacherID string) (models.CourseSnapshot, error) {
	var resp coursesResponse
	query := url.Values{"teacher_id": {teacherID}}
	if err := c.getJSON(ctx, "courses", query, &resp); err != nil {
		return models.CourseSnapshot{}, err
	}
	return models.CourseSnapshot{
		Courses:      resp.Courses,
		LastSyncedAt: resp.LastSyncedAt,
		Stale:        resp.Stale,
	}, nil
}

// TriggerSync asks the backend to refresh its cached Canvas data. The backend
// performs the refresh asynchronously; no response body contract is relied on.
func (c *Client) TriggerSync(ctx context.Context, teacherID string) error {
	query := url.Values{"teacher_id": {teacherID}}
	return c.getJSON(ctx, "courses/sync", query, nil)
}

type studentsResponse struct {
	Students []models.Student `json:"students"`
}

// Students fetches the course roster.
func (c *Client) Students(ctx context.Context, teacherID, courseID string) ([]models.Student, error) {
	var resp studentsResponse
	query := url.Values{"teacher_id": {teacherID}, "course_id_canvas": {courseID}}
	if err := c.getJSON(ctx, "students", query, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

type submissionsResponse struct {
	Students []models.StudentSubmission `json:"students"`
}

// Submissions fetches per-student submission and grade records.
func (c *Client) Submissions(ctx context.Context, teacherID, courseID string) ([]models.StudentSubmission, error) {
	var resp submissionsResponse
	query := url.Values{"teacher_id": {teacherID}, "course_id_canvas": {courseID}}
	if err := c.getJSON(ctx, "submissions", query, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

type assignmentsResponse struct {
	Assignments []models.Assignment `json:"assignments"`
}

// Assignments fetches course assessments with submission progress.
func (c *Client) Assignments(ctx context.Context, teacherID, courseID string) ([]models.Assignment, error) {
	var resp assignmentsResponse
	query := url.Values{"teacher_id": {teacherID}, "course_id_canvas": {courseID}}
	if err := c.getJSON(ctx, "assignments", query, &resp); err != nil {
		return nil, err
	}
	return resp.Assignments, nil
}

type tokenStatusResponse struct {
	Status   string `json:"status"`
	HasToken bool   `json:"hasToken"`
	Last4    string `json:"last4"`
}

// TokenStatus reports whether the backend holds a Canvas token for the teacher.
func (c *Client) TokenStatus(ctx context.Context, teacherID string) (models.TokenStatus, error) {
	var resp tokenStatusResponse
	query := url.Values{"teacher_id": {teacherID}}
	if err := c.getJSON(ctx, "token-status", query, &resp); err != nil {
		return models.TokenStatus{}, err
	}
	if resp.Status != "ok" {
		return models.TokenStatus{}, appErrors.Clone(appErrors.ErrUpstream, "token status lookup failed")
	}
	return models.TokenStatus{HasToken: resp.HasToken, Last4: resp.Last4}, nil
}

type saveTokenRequest struct {
	TeacherID   string `json:"teacher_id"`
	CanvasToken string `json:"canvas_token"`
}

type saveTokenResponse struct {
	Status  string `json:"status"`
	Last4   string `json:"last4"`
	Message string `json:"message"`
}

// SaveToken stores a Canvas access token with the backend and returns the
// masked tail on success.
func (c *Client) SaveToken(ctx context.Context, teacherID, canvasToken string) (models.TokenStatus, error) {
	var resp saveTokenResponse
	payload := saveTokenRequest{TeacherID: teacherID, CanvasToken: canvasToken}
	if err := c.postJSON(ctx, "save-token", payload, &resp); err != nil {
		return models.TokenStatus{}, err
	}
	if resp.Status != "ok" {
		message := resp.Message
		if message == "" {
			message = "token could not be saved"
		}
		return models.TokenStatus{}, appErrors.Clone(appErrors.ErrUpstream, message)
	}
	return models.TokenStatus{HasToken: true, Last4: resp.Last4}, nil
}

// ContactDraftRequest carries the context for an AI contact-email draft.
type ContactDraftRequest struct {
	TeacherID       string                `json:"teacher_id"`
	TeacherName     string                `json:"teacher_name"`
	CourseName      string                `json:"course_name"`
	CourseIDCanvas  string                `json:"course_id_canvas"`
	StudentCanvasID int64                 `json:"student_canvas_id"`
	StudentName     string                `json:"student_name"`
	StudentEmail    *string               `json:"student_email"`
	Context         models.StudentContext `json:"context"`
}

type draftResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateContactDraft asks the backend to draft a contact email.
func (c *Client) GenerateContactDraft(ctx context.Context, req ContactDraftRequest) (models.Draft, error) {
	var resp draftResponse
	if err := c.postJSON(ctx, "contact-student", req, &resp); err != nil {
		return models.Draft{}, err
	}
	return models.Draft{Subject: resp.Subject, Body: resp.Body}, nil
}

// ContactSendRequest carries a (possibly hand-edited) draft plus full context.
type ContactSendRequest struct {
	TeacherID       string                `json:"teacher_id"`
	TeacherEmail    string                `json:"teacher_email"`
	CourseIDCanvas  string                `json:"course_id_canvas"`
	StudentCanvasID int64                 `json:"student_canvas_id"`
	StudentName     string                `json:"student_name"`
	StudentEmail    *string               `json:"student_email"`
	Context         models.StudentContext `json:"context"`
	Subject         string                `json:"subject"`
	Body            string                `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

// SendContactEmail delivers a contact email. Only status "sent" is success.
func (c *Client) SendContactEmail(ctx context.Context, req ContactSendRequest) error {
	var resp sendResponse
	if err := c.postJSON(ctx, "contact-student/send", req, &resp); err != nil {
		return err
	}
	if resp.Status != "sent" {
		return appErrors.Clone(appErrors.ErrSendFailed, fmt.Sprintf("backend reported status %q", resp.Status))
	}
	return nil
}

// ReminderDraftRequest carries assignment metadata for a reminder draft.
type ReminderDraftRequest struct {
	CourseName  string                    `json:"course_name"`
	TeacherName string                    `json:"teacher_name"`
	Assignment  models.ReminderAssignment `json:"assignment"`
}

// GenerateReminderDraft asks the backend to draft an assignment reminder.
func (c *Client) GenerateReminderDraft(ctx context.Context, req ReminderDraftRequest) (models.Draft, error) {
	var resp draftResponse
	if err := c.postJSON(ctx, "assignments/remind", req, &resp); err != nil {
		return models.Draft{}, err
	}
	return models.Draft{Subject: resp.Subject, Body: resp.Body}, nil
}

// ReminderSendRequest fans a reminder out through the backend. Students always
// holds the entire current course roster; eligibility filtering is the
// backend's job.
type ReminderSendRequest struct {
	TeacherEmail string                   `json:"teacher_email"`
	Students     []models.RosterRecipient `json:"students"`
	Subject      string                   `json:"subject"`
	Body         string                   `json:"body"`
}

// SendReminder delivers an assignment reminder. Only status "sent" is success.
func (c *Client) SendReminder(ctx context.Context, req ReminderSendRequest) error {
	var resp sendResponse
	if err := c.postJSON(ctx, "assignments/remind/send", req, &resp); err != nil {
		return err
	}
	if resp.Status != "sent" {
		return appErrors.Clone(appErrors.ErrSendFailed, fmt.Sprintf("backend reported status %q", resp.Status))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	target := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("build %s request", endpoint))
	}
	return c.do(req, endpoint, dest)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("encode %s payload", endpoint))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("build %s request", endpoint))
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, dest)
}

func (c *Client) do(req *http.Request, endpoint string, dest interface{}) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.ObserveUpstreamRequest(endpoint, status, duration)
	}

	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("call %s", endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("upstream returned non-success status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("%s returned status %d", endpoint, resp.StatusCode))
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("decode %s response", endpoint))
	}
	return nil
}
