package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studiocoach/course-api/internal/domain"
	"github.com/studiocoach/course-api/internal/infrastructure/mailerlite"
)

// downloadTTL bounds how long a handed-out lead-magnet link stays valid.
const downloadTTL = 15 * time.Minute

// ResourceStore hands out time-limited download links for stored objects.
type ResourceStore interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service interface {
	PDFDownload(ctx context.Context, name, email, ip string) (downloadURL string, err error)
}

type ServiceDeps struct {
	List          mailerlite.Client
	Resources     ResourceStore
	GroupID       string
	LeadMagnetKey string
}

type service struct {
	list          mailerlite.Client
	resources     ResourceStore
	groupID       string
	leadMagnetKey string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		list:          deps.List,
		resources:     deps.Resources,
		groupID:       deps.GroupID,
		leadMagnetKey: deps.LeadMagnetKey,
	}
}

// PDFDownload subscribes the visitor to the download group and returns a
// time-limited link to the PDF. List-sync failures never block the download.
func (s *service) PDFDownload(ctx context.Context, name, email, ip string) (string, error) {
	if name == "" || email == "" {
		return "", fmt.Errorf("missing required fields: %w", domain.ErrBadRequest)
	}

	sub := mailerlite.Subscriber{
		Email:    email,
		Name:     name,
		IP:       ip,
		GroupIDs: []string{s.groupID},
	}
	if err := s.list.UpsertSubscriber(ctx, sub); err != nil {
		slog.Warn("mailerlite sync failed", "email", email, "err", err)
	}

	url, err := s.resources.PresignedURL(ctx, s.leadMagnetKey, downloadTTL)
	if err != nil {
		return "", fmt.Errorf("presign lead magnet: %w", domain.ErrDependency)
	}
	return url, nil
}
