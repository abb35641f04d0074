package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studiocoach/course-api/internal/domain"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) GetByUserChapter(ctx context.Context, userEmail, chapterID string) (*domain.UserProgress, error) {
	args := m.Called(ctx, userEmail, chapterID)
	if p, _ := args.Get(0).(*domain.UserProgress); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListCompletedByUser(ctx context.Context, userEmail string) ([]domain.UserProgress, error) {
	args := m.Called(ctx, userEmail)
	if rows, _ := args.Get(0).([]domain.UserProgress); rows != nil {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Put(ctx context.Context, p *domain.UserProgress) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockStore) Update(ctx context.Context, progressID string, updates map[string]interface{}) error {
	return m.Called(ctx, progressID, updates).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	args := m.Called(ctx, key, v)
	return args.Bool(0), args.Error(1)
}
func (m *mockCache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) error {
	return m.Called(ctx, key, v, ttl, tags).Error(0)
}
func (m *mockCache) Invalidate(ctx context.Context, tags ...string) error {
	return m.Called(ctx, tags).Error(0)
}

// --- builder ---

func newTestService(repo *mockStore, c *mockCache) Service {
	return NewService(ServiceDeps{
		Repo:         repo,
		Cache:        c,
		BaseURL:      "https://courses.example.com",
		WriteEnabled: true,
	})
}

func completionReq() CompletionRequest {
	return CompletionRequest{
		UserEmail:       "a@b.com",
		ChapterID:       "ch1",
		ChapterTitle:    "Breathing Basics",
		CourseID:        "co1",
		CourseTitle:     "Foundations",
		ChapterDuration: 12,
	}
}

// --- RecordCompletion ---

func TestRecordCompletion_MissingFields(t *testing.T) {
	svc := newTestService(nil, nil)
	req := completionReq()
	req.ChapterID = ""
	_, err := svc.RecordCompletion(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRecordCompletion_WritesDisabled(t *testing.T) {
	svc := NewService(ServiceDeps{WriteEnabled: false})
	_, err := svc.RecordCompletion(context.Background(), completionReq())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMisconfigured))
}

func TestRecordCompletion_AlreadyCompleted_Idempotent(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	existing := &domain.UserProgress{
		ProgressID: "p1",
		UserEmail:  "a@b.com",
		ChapterID:  "ch1",
		Completed:  true,
	}
	repo.On("GetByUserChapter", mock.Anything, "a@b.com", "ch1").Return(existing, nil)

	svc := newTestService(repo, c)
	res, err := svc.RecordCompletion(context.Background(), completionReq())

	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, existing, res.Progress)
	assert.Empty(t, res.RevalidatedTags)
	// Nothing written, nothing invalidated.
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestRecordCompletion_PatchesIncompleteRecord(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	existing := &domain.UserProgress{
		ProgressID: "p1",
		UserEmail:  "a@b.com",
		ChapterID:  "ch1",
		Completed:  false,
	}
	repo.On("GetByUserChapter", mock.Anything, "a@b.com", "ch1").Return(existing, nil)
	repo.On("Update", mock.Anything, "p1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m["completed"] == true && m["watch_time_seconds"] == 720
	})).Return(nil)
	c.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, c)
	res, err := svc.RecordCompletion(context.Background(), completionReq())

	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 720, res.Progress.WatchTimeSeconds)
	repo.AssertExpectations(t)
}

func TestRecordCompletion_CreatesRecord_AndInvalidatesTags(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	repo.On("GetByUserChapter", mock.Anything, "a@b.com", "ch1").Return(nil, domain.ErrNotFound)

	var captured *domain.UserProgress
	repo.On("Put", mock.Anything, mock.MatchedBy(func(p *domain.UserProgress) bool {
		captured = p
		return true
	})).Return(nil)
	c.On("Invalidate", mock.Anything, []string{
		"progress-a@b.com",
		"progress-a@b.com-co1",
		"progress-a@b.com-ch1",
		"course-stats-co1",
		"user-stats-a@b.com",
	}).Return(nil)

	svc := newTestService(repo, c)
	res, err := svc.RecordCompletion(context.Background(), completionReq())

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.NotEmpty(t, captured.ProgressID)
	assert.True(t, captured.Completed)
	assert.Equal(t, 12*60, captured.WatchTimeSeconds)
	assert.Len(t, res.RevalidatedTags, 5)
	c.AssertExpectations(t)
}

func TestRecordCompletion_InvalidationFailure_DoesNotFailWrite(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	repo.On("GetByUserChapter", mock.Anything, "a@b.com", "ch1").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	c.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := newTestService(repo, c)
	_, err := svc.RecordCompletion(context.Background(), completionReq())
	require.NoError(t, err)
}

// --- GetProgress ---

func TestGetProgress_MissingEmail(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.GetProgress(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestGetProgress_CacheHit_SkipsStore(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	c.On("Get", mock.Anything, "progress:a@b.com", mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(2).(*Report)
		out.Stats = domain.ProgressStats{TotalChapters: 3, CompletedChapters: 3, TotalWatchTime: 42}
	}).Return(true, nil)

	svc := newTestService(repo, c)
	report, err := svc.GetProgress(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, 42, report.Stats.TotalWatchTime)
	repo.AssertNotCalled(t, "ListCompletedByUser", mock.Anything, mock.Anything)
}

func TestGetProgress_ComputesStats_AndCaches(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	rows := []domain.UserProgress{
		{ProgressID: "p1", Completed: true, WatchTimeSeconds: 720},
		{ProgressID: "p2", Completed: true, WatchTimeSeconds: 90},
	}
	c.On("Get", mock.Anything, "progress:a@b.com", mock.Anything).Return(false, nil)
	repo.On("ListCompletedByUser", mock.Anything, "a@b.com").Return(rows, nil)
	c.On("Set", mock.Anything, "progress:a@b.com", mock.Anything, readTTL, []string{"progress-a@b.com"}).Return(nil)

	svc := newTestService(repo, c)
	report, err := svc.GetProgress(context.Background(), "A@B.com")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.TotalChapters)
	assert.Equal(t, 2, report.Stats.CompletedChapters)
	// 810 seconds rounds to 14 minutes.
	assert.Equal(t, 14, report.Stats.TotalWatchTime)
	c.AssertExpectations(t)
}

func TestGetProgress_EmptyHistory(t *testing.T) {
	repo := &mockStore{}
	c := &mockCache{}

	c.On("Get", mock.Anything, "progress:a@b.com", mock.Anything).Return(false, nil)
	repo.On("ListCompletedByUser", mock.Anything, "a@b.com").Return([]domain.UserProgress{}, nil)
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, c)
	report, err := svc.GetProgress(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.NotNil(t, report.Progress)
	assert.Empty(t, report.Progress)
	assert.Zero(t, report.Stats.TotalWatchTime)
}
