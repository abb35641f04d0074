package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/studiocoach/course-api/internal/domain"
)

// catalogTTL is generous because authoring changes are rare; the tags still
// allow an eager flush if the content team needs one.
const catalogTTL = 5 * time.Minute

// resourceTTL bounds how long a handed-out chapter-attachment link stays valid.
const resourceTTL = 15 * time.Minute

// CourseStore is the slice of the course repo this service needs.
type CourseStore interface {
	ListPublished(ctx context.Context) ([]domain.Course, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Course, error)
}

// ChapterStore resolves chapter references.
type ChapterStore interface {
	Get(ctx context.Context, chapterID string) (*domain.Chapter, error)
	GetMany(ctx context.Context, chapterIDs []string) ([]domain.Chapter, error)
}

// ResourceStore hands out time-limited download links for stored objects.
type ResourceStore interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Cache is the tag-invalidating read cache catalog reads go through.
type Cache interface {
	Get(ctx context.Context, key string, v interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) error
}

type Service interface {
	ListCourses(ctx context.Context) ([]domain.CourseSummary, error)
	GetCourse(ctx context.Context, slug string) (*domain.CourseDetail, error)
	ChapterResource(ctx context.Context, chapterID string) (string, error)
}

type ServiceDeps struct {
	Courses   CourseStore
	Chapters  ChapterStore
	Cache     Cache
	Resources ResourceStore
}

type service struct {
	courses   CourseStore
	chapters  ChapterStore
	cache     Cache
	resources ResourceStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		courses:   deps.Courses,
		chapters:  deps.Chapters,
		cache:     deps.Cache,
		resources: deps.Resources,
	}
}

// ListCourses returns published courses, featured first then by title.
func (s *service) ListCourses(ctx context.Context) ([]domain.CourseSummary, error) {
	var cached []domain.CourseSummary
	if hit, err := s.cache.Get(ctx, "courses", &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		slog.Warn("catalog cache read failed", "key", "courses", "err", err)
	}

	courses, err := s.courses.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", domain.ErrDependency)
	}

	summaries := make([]domain.CourseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, domain.CourseSummary{
			Course:       c,
			ChapterCount: len(c.ChapterIDs),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Featured != summaries[j].Featured {
			return summaries[i].Featured
		}
		return summaries[i].Title < summaries[j].Title
	})

	if err := s.cache.Set(ctx, "courses", summaries, catalogTTL, "courses"); err != nil {
		slog.Warn("catalog cache write failed", "key", "courses", "err", err)
	}
	return summaries, nil
}

// GetCourse returns one published course with its chapters resolved in
// authored order.
func (s *service) GetCourse(ctx context.Context, slug string) (*domain.CourseDetail, error) {
	if slug == "" {
		return nil, fmt.Errorf("course slug is required: %w", domain.ErrBadRequest)
	}
	key := "course:" + slug

	var cached domain.CourseDetail
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		slog.Warn("catalog cache read failed", "key", key, "err", err)
	}

	course, err := s.courses.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", domain.ErrDependency)
	}
	if !course.Published {
		return nil, fmt.Errorf("course %s: %w", slug, domain.ErrNotFound)
	}

	chapters, err := s.chapters.GetMany(ctx, course.ChapterIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve chapters: %w", domain.ErrDependency)
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Order < chapters[j].Order })

	detail := &domain.CourseDetail{Course: *course, Chapters: chapters}
	if err := s.cache.Set(ctx, key, detail, catalogTTL, "courses", "course-"+course.CourseID); err != nil {
		slog.Warn("catalog cache write failed", "key", key, "err", err)
	}
	return detail, nil
}

// ChapterResource returns a time-limited download link for a chapter's
// attachment. Links are minted fresh per request, never cached.
func (s *service) ChapterResource(ctx context.Context, chapterID string) (string, error) {
	if chapterID == "" {
		return "", fmt.Errorf("chapter id is required: %w", domain.ErrBadRequest)
	}

	chapter, err := s.chapters.Get(ctx, chapterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get chapter: %w", domain.ErrDependency)
	}
	if chapter.ResourceKey == "" {
		return "", fmt.Errorf("chapter %s has no resource: %w", chapterID, domain.ErrNotFound)
	}

	url, err := s.resources.PresignedURL(ctx, chapter.ResourceKey, resourceTTL)
	if err != nil {
		return "", fmt.Errorf("presign chapter resource: %w", domain.ErrDependency)
	}
	return url, nil
}
