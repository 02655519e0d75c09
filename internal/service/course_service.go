package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
	"github.com/progressnav/canvas-pulse-api/pkg/jobs"
)

type courseGateway interface {
	Courses(ctx context.Context, teacherID string) (models.CourseSnapshot, error)
	TriggerSync(ctx context.Context, teacherID string) error
}

// CourseServiceConfig tunes sync cascade behaviour.
type CourseServiceConfig struct {
	// SettleDelay is how long a cascade waits after triggering a backend sync
	// before re-fetching the course list.
	SettleDelay time.Duration
	CacheTTL    time.Duration
	Workers     int
}

// courseSyncState tracks per-teacher cascade bookkeeping. version increments
// on every applied snapshot so a cascade re-fetch that loses the race against
// a newer load is discarded instead of clobbering fresher data.
type courseSyncState struct {
	inFlight bool
	version  uint64
	snapshot models.CourseSnapshot
	hasData  bool
}

// CourseService orchestrates the fetch → detect staleness → background sync →
// re-fetch cascade for a teacher's course list.
type CourseService struct {
	gateway courseGateway
	cache   *CacheService
	logger  *zap.Logger
	cfg     CourseServiceConfig

	queue *jobs.Queue

	mu     sync.Mutex
	states map[string]*courseSyncState
}

type syncJobPayload struct {
	teacherID   string
	baseVersion uint64
}

// NewCourseService constructs a CourseService with sane defaults. Start must
// be called before cascades can run.
func NewCourseService(gateway courseGateway, cache *CacheService, cfg CourseServiceConfig, logger *zap.Logger) *CourseService {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CourseService{
		gateway: gateway,
		cache:   cache,
		logger:  logger,
		cfg:     cfg,
		states:  make(map[string]*courseSyncState),
	}
	s.queue = jobs.NewQueue("course-sync", s.handleSyncJob, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the cascade workers.
func (s *CourseService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the cascade workers.
func (s *CourseService) Stop() {
	s.queue.Stop()
}

// Load fetches the teacher's course list. When the backend marks the result
// stale, exactly one background cascade is triggered for this load; a cascade
// already in flight is never duplicated. A fetch failure leaves previously
// loaded data untouched and is reported as a retryable upstream error.
func (s *CourseService) Load(ctx context.Context, teacherID string) (*dto.CoursesResponse, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	cacheKey := coursesCacheKey(teacherID)
	if s.cache.Enabled() {
		var cached models.CourseSnapshot
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			// A cached snapshot can still be stale when an earlier cascade
			// failed; re-arm it so staleness cannot outlive the cache TTL.
			if cached.Stale {
				if started := s.beginCascade(teacherID); started {
					s.logger.Info("stale cached course list, sync cascade triggered", zap.String("teacher_id", teacherID))
				}
			}
			return s.buildResponse(teacherID, cached), nil
		}
	}

	snapshot, err := s.gateway.Courses(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	s.applySnapshot(teacherID, snapshot)
	s.persistSnapshot(ctx, cacheKey, snapshot)

	if snapshot.Stale {
		if started := s.beginCascade(teacherID); started {
			s.logger.Info("stale course list, sync cascade triggered", zap.String("teacher_id", teacherID))
		}
	}

	return s.buildResponse(teacherID, snapshot), nil
}

// Refresh runs the sync cascade on demand, independent of staleness. While a
// cascade for the teacher is in flight further refreshes are rejected; retry
// is manual once it settles.
func (s *CourseService) Refresh(ctx context.Context, teacherID string) error {
	if teacherID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if started := s.beginCascade(teacherID); !started {
		return appErrors.ErrSyncInFlight
	}
	// Drop the cached list so other instances re-fetch once the sync lands.
	s.cache.Invalidate(ctx, coursesCacheKey(teacherID))
	s.logger.Info("manual course refresh requested", zap.String("teacher_id", teacherID))
	return nil
}

// Refreshing reports whether a cascade is currently in flight for the teacher.
func (s *CourseService) Refreshing(teacherID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[teacherID]
	return ok && state.inFlight
}

// CourseName resolves a course's display name from the teacher's current
// course list. Best effort: a miss falls back to a generic label, mirroring
// how the backend treats course names as decoration for email drafts.
func (s *CourseService) CourseName(ctx context.Context, teacherID, courseID string) string {
	fallback := fmt.Sprintf("Course %s", courseID)

	resp, err := s.Load(ctx, teacherID)
	if err != nil {
		s.logger.Warn("course name lookup failed", zap.String("course_id", courseID), zap.Error(err))
		return fallback
	}
	for _, course := range resp.Courses {
		if fmt.Sprintf("%d", course.ID) == courseID {
			return course.Name
		}
	}
	return fallback
}

func (s *CourseService) beginCascade(teacherID string) bool {
	s.mu.Lock()
	state := s.ensureStateLocked(teacherID)
	if state.inFlight {
		s.mu.Unlock()
		return false
	}
	state.inFlight = true
	baseVersion := state.version
	s.mu.Unlock()

	job := jobs.Job{
		ID:      fmt.Sprintf("sync-%s-%d", teacherID, baseVersion),
		Type:    "course_sync",
		Payload: syncJobPayload{teacherID: teacherID, baseVersion: baseVersion},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.mu.Lock()
		state.inFlight = false
		s.mu.Unlock()
		s.logger.Warn("failed to enqueue sync cascade", zap.String("teacher_id", teacherID), zap.Error(err))
		return false
	}
	return true
}

func (s *CourseService) handleSyncJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(syncJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	s.runCascade(ctx, payload.teacherID, payload.baseVersion)
	return nil
}

// runCascade performs sync → settle delay → re-fetch. Any failure keeps the
// previous course list; nothing is ever cleared.
func (s *CourseService) runCascade(ctx context.Context, teacherID string, baseVersion uint64) {
	defer s.endCascade(teacherID)

	if err := s.gateway.TriggerSync(ctx, teacherID); err != nil {
		s.logger.Warn("sync trigger failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return
	}

	if !s.settle(ctx) {
		return
	}

	snapshot, err := s.gateway.Courses(ctx, teacherID)
	if err != nil {
		s.logger.Warn("post-sync re-fetch failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return
	}

	s.mu.Lock()
	state := s.ensureStateLocked(teacherID)
	if state.version != baseVersion {
		// A newer load already replaced the list; this result is stale.
		s.mu.Unlock()
		s.logger.Debug("discarding superseded cascade result", zap.String("teacher_id", teacherID))
		return
	}
	state.snapshot = snapshot
	state.hasData = true
	state.version++
	s.mu.Unlock()

	s.persistSnapshot(ctx, coursesCacheKey(teacherID), snapshot)
	s.logger.Info("course sync cascade completed",
		zap.String("teacher_id", teacherID),
		zap.Int("courses", len(snapshot.Courses)),
	)
}

func (s *CourseService) settle(ctx context.Context) bool {
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *CourseService) endCascade(teacherID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[teacherID]; ok {
		state.inFlight = false
	}
}

func (s *CourseService) applySnapshot(teacherID string, snapshot models.CourseSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.ensureStateLocked(teacherID)
	state.snapshot = snapshot
	state.hasData = true
	state.version++
}

func (s *CourseService) persistSnapshot(ctx context.Context, key string, snapshot models.CourseSnapshot) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, snapshot, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("course snapshot cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CourseService) buildResponse(teacherID string, snapshot models.CourseSnapshot) *dto.CoursesResponse {
	courses := snapshot.Courses
	if courses == nil {
		courses = []models.Course{}
	}
	return &dto.CoursesResponse{
		Courses:      courses,
		LastSyncedAt: snapshot.LastSyncedAt,
		Stale:        snapshot.Stale,
		Refreshing:   s.Refreshing(teacherID),
	}
}

func (s *CourseService) ensureStateLocked(teacherID string) *courseSyncState {
	state, ok := s.states[teacherID]
	if !ok {
		state = &courseSyncState{}
		s.states[teacherID] = state
	}
	return state
}

func coursesCacheKey(teacherID string) string {
	return fmt.Sprintf("courses:%s", teacherID)
}
