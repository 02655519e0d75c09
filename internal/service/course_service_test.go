package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

type fakeCourseGateway struct {
	mu sync.Mutex

	snapshot    models.CourseSnapshot
	coursesErr  error
	syncErr     error
	coursesCall int
	syncCall    int

	syncStarted chan struct{}
	syncRelease chan struct{}
}

func (f *fakeCourseGateway) Courses(context.Context, string) (models.CourseSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coursesCall++
	if f.coursesErr != nil {
		return models.CourseSnapshot{}, f.coursesErr
	}
	return f.snapshot, nil
}

func (f *fakeCourseGateway) TriggerSync(context.Context, string) error {
	f.mu.Lock()
	f.syncCall++
	started := f.syncStarted
	release := f.syncRelease
	err := f.syncErr
	f.mu.Unlock()

	if started != nil {
		close(started)
		f.mu.Lock()
		f.syncStarted = nil
		f.mu.Unlock()
	}
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeCourseGateway) syncCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCall
}

func (f *fakeCourseGateway) setSnapshot(s models.CourseSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = s
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string][]byte{}
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string][]byte{}
	return nil
}

func (f *fakeCacheRepo) Ping(context.Context) error { return nil }

func newCourseServiceForTest(t *testing.T, gateway *fakeCourseGateway) *CourseService {
	t.Helper()
	svc := NewCourseService(gateway, nil, CourseServiceConfig{
		SettleDelay: 5 * time.Millisecond,
		Workers:     1,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc
}

func TestCourseLoadFreshListDoesNotSync(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot: models.CourseSnapshot{
			Courses:      []models.Course{{ID: 1, Name: "Algebra"}},
			LastSyncedAt: "2026-02-01T08:00:00Z",
		},
	}
	svc := newCourseServiceForTest(t, gateway)

	resp, err := svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Len(t, resp.Courses, 1)
	assert.False(t, resp.Stale)
	assert.False(t, resp.Refreshing)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, gateway.syncCalls())
}

func TestCourseLoadStaleTriggersExactlyOneCascade(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot: models.CourseSnapshot{
			Courses: []models.Course{{ID: 1, Name: "Algebra"}},
			Stale:   true,
		},
	}
	svc := newCourseServiceForTest(t, gateway)

	resp, err := svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, resp.Stale)

	require.Eventually(t, func() bool {
		return gateway.syncCalls() == 1 && !svc.Refreshing("t-1")
	}, time.Second, 5*time.Millisecond)

	// The cascade re-fetched after the settle delay: initial load plus one.
	gateway.mu.Lock()
	fetches := gateway.coursesCall
	gateway.mu.Unlock()
	assert.Equal(t, 2, fetches)
}

func TestCourseRefreshRejectsConcurrentCascade(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot:    models.CourseSnapshot{Courses: []models.Course{{ID: 1, Name: "Algebra"}}},
		syncStarted: make(chan struct{}),
		syncRelease: make(chan struct{}),
	}
	svc := newCourseServiceForTest(t, gateway)

	require.NoError(t, svc.Refresh(context.Background(), "t-1"))
	<-gateway.syncStarted

	err := svc.Refresh(context.Background(), "t-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "SYNC_IN_FLIGHT", appErr.Code)

	close(gateway.syncRelease)
	require.Eventually(t, func() bool {
		return !svc.Refreshing("t-1")
	}, time.Second, 5*time.Millisecond)

	// Once the cascade settles, a new refresh is accepted again.
	require.NoError(t, svc.Refresh(context.Background(), "t-1"))
}

func TestCourseLoadFailureSurfacesUpstreamError(t *testing.T) {
	gateway := &fakeCourseGateway{coursesErr: appErrors.Clone(appErrors.ErrUpstream, "backend down")}
	svc := newCourseServiceForTest(t, gateway)

	_, err := svc.Load(context.Background(), "t-1")
	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_ERROR", appErrors.FromError(err).Code)

	// Recovery needs nothing beyond a retried load.
	gateway.mu.Lock()
	gateway.coursesErr = nil
	gateway.snapshot = models.CourseSnapshot{Courses: []models.Course{{ID: 2, Name: "Biology"}}}
	gateway.mu.Unlock()

	resp, err := svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Courses[0].ID)
}

func TestCourseCascadeFailureKeepsPreviousList(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot: models.CourseSnapshot{
			Courses: []models.Course{{ID: 1, Name: "Algebra"}},
			Stale:   true,
		},
		syncErr: errors.New("sync rejected"),
	}
	svc := newCourseServiceForTest(t, gateway)

	resp, err := svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, resp.Courses, 1)

	require.Eventually(t, func() bool {
		return gateway.syncCalls() == 1 && !svc.Refreshing("t-1")
	}, time.Second, 5*time.Millisecond)

	// The failed cascade never re-fetched, and the list is still served.
	gateway.mu.Lock()
	fetches := gateway.coursesCall
	gateway.mu.Unlock()
	assert.Equal(t, 1, fetches)

	resp, err = svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", resp.Courses[0].Name)
}

func TestCourseStaleCacheHitRearmsCascade(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot: models.CourseSnapshot{
			Courses:      []models.Course{{ID: 1, Name: "Algebra"}},
			LastSyncedAt: "2026-02-01T08:00:00Z",
		},
	}

	// A stale snapshot left in the cache by an earlier failed cascade.
	repo := &fakeCacheRepo{}
	require.NoError(t, repo.Set(context.Background(), coursesCacheKey("t-1"), models.CourseSnapshot{
		Courses: []models.Course{{ID: 1, Name: "Algebra"}},
		Stale:   true,
	}, 0))
	cacheSvc := NewCacheService(repo, nil, time.Minute, nil, true)

	svc := NewCourseService(gateway, cacheSvc, CourseServiceConfig{
		SettleDelay: 5 * time.Millisecond,
		Workers:     1,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})

	resp, err := svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, resp.Stale)

	// The cached hit still arms a cascade, which refreshes the cache.
	require.Eventually(t, func() bool {
		return gateway.syncCalls() == 1 && !svc.Refreshing("t-1")
	}, time.Second, 5*time.Millisecond)

	resp, err = svc.Load(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, resp.Stale)
	assert.Equal(t, 1, gateway.syncCalls())
}

func TestCourseNameFallsBackWhenUnknown(t *testing.T) {
	gateway := &fakeCourseGateway{
		snapshot: models.CourseSnapshot{Courses: []models.Course{{ID: 42, Name: "Chemistry"}}},
	}
	svc := newCourseServiceForTest(t, gateway)

	assert.Equal(t, "Chemistry", svc.CourseName(context.Background(), "t-1", "42"))
	assert.Equal(t, "Course 99", svc.CourseName(context.Background(), "t-1", "99"))
}

func TestCourseLoadRequiresTeacherID(t *testing.T) {
	svc := newCourseServiceForTest(t, &fakeCourseGateway{})
	_, err := svc.Load(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}
