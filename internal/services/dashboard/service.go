// Package dashboard implements the owner-scoped channel overview.
package dashboard

import (
	"context"

	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service produces channel statistics for the authenticated owner.
type Service struct {
	videos storage.VideoStore
	log    *logger.Logger
}

// New constructs a dashboard service.
func New(videos storage.VideoStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("dashboard")
	}
	return &Service{videos: videos, log: log}
}

// Stats aggregates the caller's channel totals.
func (s *Service) Stats(ctx context.Context, ownerID string) (views.DashboardStats, error) {
	return s.videos.DashboardStats(ctx, ownerID)
}

// Videos lists every video on the caller's channel, published or not, with
// like counts.
func (s *Service) Videos(ctx context.Context, ownerID string) ([]views.DashboardVideo, error) {
	result, err := s.videos.ChannelVideos(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []views.DashboardVideo{}
	}
	return result, nil
}
