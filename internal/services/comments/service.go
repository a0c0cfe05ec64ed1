// Package comments implements the comment thread under a video.
package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages comments.
type Service struct {
	store storage.CommentStore
	log   *logger.Logger
}

// New constructs a comment service.
func New(store storage.CommentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("comments")
	}
	return &Service{store: store, log: log}
}

// Add creates a comment on a video.
func (s *Service) Add(ctx context.Context, userID, videoID, content string) (comment.Comment, error) {
	if err := validID(videoID, "video"); err != nil {
		return comment.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return comment.Comment{}, apperr.BadRequest("content is required")
	}

	created, err := s.store.CreateComment(ctx, comment.Comment{
		VideoID: videoID,
		OwnerID: userID,
		Content: content,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, apperr.NotFound("video not found")
		}
		return comment.Comment{}, err
	}
	s.log.WithField("comment_id", created.ID).WithField("video_id", videoID).Info("comment added")
	return created, nil
}

// Update rewrites a comment the caller owns.
func (s *Service) Update(ctx context.Context, userID, commentID, content string) (comment.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return comment.Comment{}, apperr.BadRequest("content is required")
	}
	c, err := s.owned(ctx, userID, commentID)
	if err != nil {
		return comment.Comment{}, err
	}

	c.Content = content
	updated, err := s.store.UpdateComment(ctx, c)
	if err != nil {
		return comment.Comment{}, err
	}
	return updated, nil
}

// Delete removes a comment the caller owns, along with its likes.
func (s *Service) Delete(ctx context.Context, userID, commentID string) error {
	if _, err := s.owned(ctx, userID, commentID); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("comment not found")
		}
		return err
	}
	s.log.WithField("comment_id", commentID).Info("comment deleted")
	return nil
}

// List returns the video's comments newest first, with like stats relative to
// the viewer.
func (s *Service) List(ctx context.Context, videoID, viewerID string, p pagination.Params) (pagination.Page[views.CommentView], error) {
	if err := validID(videoID, "video"); err != nil {
		return pagination.Page[views.CommentView]{}, err
	}
	p = p.Normalize()

	items, total, err := s.store.ListVideoComments(ctx, videoID, viewerID, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return pagination.Page[views.CommentView]{}, apperr.NotFound("video not found")
		}
		return pagination.Page[views.CommentView]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

func (s *Service) owned(ctx context.Context, userID, commentID string) (comment.Comment, error) {
	if err := validID(commentID, "comment"); err != nil {
		return comment.Comment{}, err
	}
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, apperr.NotFound("comment not found")
		}
		return comment.Comment{}, err
	}
	if c.OwnerID != userID {
		return comment.Comment{}, apperr.Forbidden("only the owner may modify this comment")
	}
	return c, nil
}

func validID(id, kind string) error {
	if uuid.Validate(id) != nil {
		return apperr.BadRequest("invalid " + kind + " id")
	}
	return nil
}
