package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/studiocoach/course-api/internal/domain"
	"github.com/studiocoach/course-api/internal/infrastructure/smtp"
	"github.com/studiocoach/course-api/internal/pkg/id"
	"github.com/studiocoach/course-api/internal/pkg/validate"
)

// readTTL keeps progress reads cheap without letting them drift: writes
// invalidate the user's tags before responding, so a stale window only
// exists for readers that raced the write itself.
const readTTL = 30 * time.Second

// Store is the slice of the progress repo this service needs.
type Store interface {
	GetByUserChapter(ctx context.Context, userEmail, chapterID string) (*domain.UserProgress, error)
	ListCompletedByUser(ctx context.Context, userEmail string) ([]domain.UserProgress, error)
	Put(ctx context.Context, p *domain.UserProgress) error
	Update(ctx context.Context, progressID string, updates map[string]interface{}) error
}

// Cache is the tag-invalidating read cache the service writes through.
type Cache interface {
	Get(ctx context.Context, key string, v interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) error
	Invalidate(ctx context.Context, tags ...string) error
}

// CompletionRequest carries one chapter-completion event.
type CompletionRequest struct {
	UserEmail       string `json:"userEmail" validate:"required"`
	ChapterID       string `json:"chapterId" validate:"required"`
	ChapterTitle    string `json:"chapterTitle" validate:"required"`
	CourseID        string `json:"courseId" validate:"required"`
	CourseTitle     string `json:"courseTitle" validate:"required"`
	ChapterDuration int    `json:"chapterDuration"` // minutes
}

// CompletionResult is the write outcome, including the cache tags that were
// invalidated so clients can observe/debug freshness.
type CompletionResult struct {
	Progress         *domain.UserProgress `json:"progress"`
	RevalidatedTags  []string             `json:"revalidatedTags,omitempty"`
	AlreadyCompleted bool                 `json:"-"`
}

// Report is the read-side payload: completed records, most recent first.
type Report struct {
	Progress []domain.UserProgress `json:"progress"`
	Stats    domain.ProgressStats  `json:"stats"`
}

type Service interface {
	RecordCompletion(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
	GetProgress(ctx context.Context, userEmail string) (*Report, error)
}

type ServiceDeps struct {
	Repo    Store
	Cache   Cache
	Mailer  smtp.Mailer
	BaseURL string
	// WriteEnabled is false when no write-capable content-store credential
	// is configured; completion writes are then refused outright.
	WriteEnabled bool
}

type service struct {
	repo         Store
	cache        Cache
	mailer       smtp.Mailer
	baseURL      string
	writeEnabled bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.Repo,
		cache:        deps.Cache,
		mailer:       deps.Mailer,
		baseURL:      deps.BaseURL,
		writeEnabled: deps.WriteEnabled,
	}
}

// RecordCompletion idempotently marks a chapter completed for a user.
// The existence check always reads current store truth, never the cache.
func (s *service) RecordCompletion(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("missing required fields: %w", domain.ErrBadRequest)
	}
	if !s.writeEnabled {
		return nil, domain.ErrMisconfigured
	}
	email := strings.ToLower(req.UserEmail)
	now := time.Now().UTC()
	watchSeconds := req.ChapterDuration * 60

	existing, err := s.repo.GetByUserChapter(ctx, email, req.ChapterID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("progress lookup: %w", domain.ErrDependency)
	}

	var record *domain.UserProgress
	switch {
	case existing != nil && existing.Completed:
		// Idempotent no-op: nothing written, nothing invalidated.
		return &CompletionResult{Progress: existing, AlreadyCompleted: true}, nil

	case existing != nil:
		if err := s.repo.Update(ctx, existing.ProgressID, map[string]interface{}{
			fieldCompleted:        true,
			fieldCompletedAt:      now,
			fieldWatchTimeSeconds: watchSeconds,
		}); err != nil {
			return nil, fmt.Errorf("patch progress: %w", domain.ErrDependency)
		}
		patched := *existing
		patched.Completed = true
		patched.CompletedAt = now
		patched.WatchTimeSeconds = watchSeconds
		record = &patched

	default:
		record = &domain.UserProgress{
			ProgressID:       id.New(),
			UserEmail:        email,
			ChapterID:        req.ChapterID,
			ChapterTitle:     req.ChapterTitle,
			CourseID:         req.CourseID,
			CourseTitle:      req.CourseTitle,
			Completed:        true,
			WatchTimeSeconds: watchSeconds,
			CompletedAt:      now,
		}
		if err := s.repo.Put(ctx, record); err != nil {
			return nil, fmt.Errorf("create progress: %w", domain.ErrDependency)
		}
	}

	// Invalidation runs before the response so the next read of any
	// affected view misses the cache and sees this write.
	tags := revalidationTags(email, req.CourseID, req.ChapterID)
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		slog.Warn("progress cache invalidation failed", "email", email, "err", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendEmail(email, completionSubject,
			completionBody(req.ChapterTitle, req.CourseTitle, s.baseURL)); err != nil {
			slog.Warn("completion email failed", "email", email, "err", err)
		}
	}

	slog.Info("progress updated and cache invalidated", "email", email, "chapter", req.ChapterID)
	return &CompletionResult{Progress: record, RevalidatedTags: tags}, nil
}

// GetProgress returns all completed records for a user, newest first, with
// derived stats. Served through the cache under the user's progress tag.
func (s *service) GetProgress(ctx context.Context, userEmail string) (*Report, error) {
	if userEmail == "" {
		return nil, fmt.Errorf("user email is required: %w", domain.ErrBadRequest)
	}
	email := strings.ToLower(userEmail)
	key := "progress:" + email

	var cached Report
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		slog.Warn("progress cache read failed", "email", email, "err", err)
	}

	records, err := s.repo.ListCompletedByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", domain.ErrDependency)
	}
	if records == nil {
		records = []domain.UserProgress{}
	}

	totalSeconds := 0
	for i := range records {
		totalSeconds += records[i].WatchTimeSeconds
	}
	report := &Report{
		Progress: records,
		Stats: domain.ProgressStats{
			TotalChapters:     len(records),
			CompletedChapters: len(records),
			TotalWatchTime:    int(math.Round(float64(totalSeconds) / 60)),
		},
	}

	if err := s.cache.Set(ctx, key, report, readTTL, "progress-"+email); err != nil {
		slog.Warn("progress cache write failed", "email", email, "err", err)
	}
	return report, nil
}

// revalidationTags lists every cached view a completion write can stale.
func revalidationTags(email, courseID, chapterID string) []string {
	return []string{
		"progress-" + email,
		"progress-" + email + "-" + courseID,
		"progress-" + email + "-" + chapterID,
		"course-stats-" + courseID,
		"user-stats-" + email,
	}
}

const completionSubject = "Chapter complete"

func completionBody(chapterTitle, courseTitle, baseURL string) string {
	return fmt.Sprintf("Nice work finishing %q in %s.\r\n\r\nPick up the next chapter at %s/courses.", chapterTitle, courseTitle, baseURL)
}
