// Package videos implements the video lifecycle: publish, lookup with its
// view-count and watch-history side effects, search, mutation and the cascade
// delete.
package videos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages videos.
type Service struct {
	store storage.VideoStore
	users storage.UserStore
	blobs media.BlobStore
	log   *logger.Logger
}

// New constructs a video service.
func New(store storage.VideoStore, users storage.UserStore, blobs media.BlobStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("videos")
	}
	return &Service{store: store, users: users, blobs: blobs, log: log}
}

// PublishInput carries the upload form for a new video.
type PublishInput struct {
	Title       string
	Description string
	Duration    float64
	Video       *media.Upload
	Thumbnail   *media.Upload
}

// Publish stores both uploads and creates the video, published immediately.
func (s *Service) Publish(ctx context.Context, ownerID string, in PublishInput) (video.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return video.Video{}, apperr.BadRequest("title is required")
	}
	if in.Video == nil {
		return video.Video{}, apperr.BadRequest("video file is required")
	}
	if in.Thumbnail == nil {
		return video.Video{}, apperr.BadRequest("thumbnail file is required")
	}
	if in.Duration < 0 {
		return video.Video{}, apperr.BadRequest("duration must not be negative")
	}

	videoURL, err := s.blobs.Put(ctx, "videos", in.Video.Filename, in.Video.ContentType, in.Video.Content)
	if err != nil {
		return video.Video{}, apperr.Internal("store video file", err)
	}
	thumbURL, err := s.blobs.Put(ctx, "thumbnails", in.Thumbnail.Filename, in.Thumbnail.ContentType, in.Thumbnail.Content)
	if err != nil {
		return video.Video{}, apperr.Internal("store thumbnail", err)
	}

	created, err := s.store.CreateVideo(ctx, video.Video{
		OwnerID:      ownerID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		Duration:     in.Duration,
		IsPublished:  true,
	})
	if err != nil {
		return video.Video{}, err
	}
	s.log.WithField("video_id", created.ID).WithField("owner_id", ownerID).Info("video published")
	return created, nil
}

// Get returns the detail view. An unpublished video is visible only to its
// owner and reads as absent to everyone else. A successful fetch counts a
// view and records the viewer's watch history.
func (s *Service) Get(ctx context.Context, videoID, viewerID string) (views.VideoDetail, error) {
	if err := validID(videoID, "video"); err != nil {
		return views.VideoDetail{}, err
	}

	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return views.VideoDetail{}, apperr.NotFound("video not found")
		}
		return views.VideoDetail{}, err
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return views.VideoDetail{}, apperr.NotFound("video not found")
	}

	if err := s.store.IncrementViews(ctx, videoID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return views.VideoDetail{}, err
	}
	if viewerID != "" {
		if err := s.users.AddWatchHistory(ctx, viewerID, videoID); err != nil {
			s.log.WithError(err).WithField("video_id", videoID).Warn("record watch history")
		}
	}

	detail, err := s.store.VideoDetail(ctx, videoID, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return views.VideoDetail{}, apperr.NotFound("video not found")
		}
		return views.VideoDetail{}, err
	}
	return detail, nil
}

// UpdateInput carries the mutable fields; nil means keep.
type UpdateInput struct {
	Title       *string
	Description *string
	Thumbnail   *media.Upload
}

// Update mutates a video the caller owns.
func (s *Service) Update(ctx context.Context, userID, videoID string, in UpdateInput) (video.Video, error) {
	v, err := s.owned(ctx, userID, videoID)
	if err != nil {
		return video.Video{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return video.Video{}, apperr.BadRequest("title must not be empty")
		}
		v.Title = title
	}
	if in.Description != nil {
		v.Description = strings.TrimSpace(*in.Description)
	}

	var oldThumb string
	if in.Thumbnail != nil {
		url, err := s.blobs.Put(ctx, "thumbnails", in.Thumbnail.Filename, in.Thumbnail.ContentType, in.Thumbnail.Content)
		if err != nil {
			return video.Video{}, apperr.Internal("store thumbnail", err)
		}
		oldThumb = v.ThumbnailURL
		v.ThumbnailURL = url
	}

	updated, err := s.store.UpdateVideo(ctx, v)
	if err != nil {
		return video.Video{}, err
	}
	if oldThumb != "" {
		if err := s.blobs.Delete(ctx, oldThumb); err != nil {
			s.log.WithError(err).Warn("delete replaced thumbnail")
		}
	}
	s.log.WithField("video_id", videoID).Info("video updated")
	return updated, nil
}

// Delete removes a video the caller owns along with everything attached to
// it. Blob deletion is best effort after the rows are gone.
func (s *Service) Delete(ctx context.Context, userID, videoID string) error {
	v, err := s.owned(ctx, userID, videoID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteVideo(ctx, videoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return err
	}
	for _, url := range []string{v.VideoURL, v.ThumbnailURL} {
		if url == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, url); err != nil {
			s.log.WithError(err).WithField("video_id", videoID).Warn("delete video blob")
		}
	}
	s.log.WithField("video_id", videoID).Info("video deleted")
	return nil
}

// TogglePublish flips the publish flag on a video the caller owns.
func (s *Service) TogglePublish(ctx context.Context, userID, videoID string) (video.Video, error) {
	v, err := s.owned(ctx, userID, videoID)
	if err != nil {
		return video.Video{}, err
	}
	v.IsPublished = !v.IsPublished

	updated, err := s.store.UpdateVideo(ctx, v)
	if err != nil {
		return video.Video{}, err
	}
	s.log.WithField("video_id", videoID).WithField("published", updated.IsPublished).Info("publish state toggled")
	return updated, nil
}

// Search lists published videos matching the filter.
func (s *Service) Search(ctx context.Context, f storage.VideoFilter, p pagination.Params) (pagination.Page[views.VideoSummary], error) {
	if f.OwnerID != "" {
		if err := validID(f.OwnerID, "user"); err != nil {
			return pagination.Page[views.VideoSummary]{}, err
		}
	}
	p = p.Normalize()

	items, total, err := s.store.SearchVideos(ctx, f, p)
	if err != nil {
		return pagination.Page[views.VideoSummary]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

func (s *Service) owned(ctx context.Context, userID, videoID string) (video.Video, error) {
	if err := validID(videoID, "video"); err != nil {
		return video.Video{}, err
	}
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return video.Video{}, apperr.NotFound("video not found")
		}
		return video.Video{}, err
	}
	if v.OwnerID != userID {
		return video.Video{}, apperr.Forbidden("only the owner may modify this video")
	}
	return v, nil
}

func validID(id, kind string) error {
	if uuid.Validate(id) != nil {
		return apperr.BadRequest("invalid " + kind + " id")
	}
	return nil
}
