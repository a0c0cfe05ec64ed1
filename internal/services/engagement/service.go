// Package engagement implements the toggle surface: video, comment and tweet
// likes plus channel subscriptions, and the read models hanging off them.
// Toggles carry no client state; the storage layer resolves concurrent flips
// of the same pair, and the response reports only the resulting state.
package engagement

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages likes and subscriptions.
type Service struct {
	store  storage.EngagementStore
	videos storage.VideoStore
	log    *logger.Logger
}

// New constructs an engagement service.
func New(store storage.EngagementStore, videos storage.VideoStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("engagement")
	}
	return &Service{store: store, videos: videos, log: log}
}

// ToggleVideoLike flips the caller's like on a video and reports the new state.
func (s *Service) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error) {
	return s.toggle(ctx, videoID, "video", func() (bool, error) {
		return s.store.ToggleVideoLike(ctx, userID, videoID)
	})
}

// ToggleCommentLike flips the caller's like on a comment.
func (s *Service) ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error) {
	return s.toggle(ctx, commentID, "comment", func() (bool, error) {
		return s.store.ToggleCommentLike(ctx, userID, commentID)
	})
}

// ToggleTweetLike flips the caller's like on a tweet.
func (s *Service) ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, error) {
	return s.toggle(ctx, tweetID, "tweet", func() (bool, error) {
		return s.store.ToggleTweetLike(ctx, userID, tweetID)
	})
}

// ToggleSubscription flips the caller's subscription to a channel. Subscribing
// to yourself is rejected.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperr.BadRequest("cannot subscribe to your own channel")
	}
	subscribed, err := s.toggle(ctx, channelID, "channel", func() (bool, error) {
		return s.store.ToggleSubscription(ctx, subscriberID, channelID)
	})
	if err != nil {
		return false, err
	}
	s.log.WithField("subscriber_id", subscriberID).
		WithField("channel_id", channelID).
		WithField("subscribed", subscribed).
		Debug("subscription toggled")
	return subscribed, nil
}

func (s *Service) toggle(ctx context.Context, targetID, kind string, flip func() (bool, error)) (bool, error) {
	if uuid.Validate(targetID) != nil {
		return false, apperr.BadRequest("invalid " + kind + " id")
	}
	active, err := flip()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, apperr.NotFound(kind + " not found")
		}
		return false, err
	}
	return active, nil
}

// LikedVideos lists the published videos the caller has liked.
func (s *Service) LikedVideos(ctx context.Context, userID string) ([]views.VideoSummary, error) {
	liked, err := s.videos.LikedVideos(ctx, userID)
	if err != nil {
		return nil, err
	}
	if liked == nil {
		liked = []views.VideoSummary{}
	}
	return liked, nil
}

// Subscribers lists a channel's subscribers with their own channel stats.
func (s *Service) Subscribers(ctx context.Context, channelID, viewerID string) ([]views.SubscriberInfo, error) {
	if uuid.Validate(channelID) != nil {
		return nil, apperr.BadRequest("invalid channel id")
	}
	subs, err := s.store.Subscribers(ctx, channelID, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("channel not found")
		}
		return nil, err
	}
	if subs == nil {
		subs = []views.SubscriberInfo{}
	}
	return subs, nil
}

// SubscribedChannels lists the channels a user subscribes to, each with its
// latest published video.
func (s *Service) SubscribedChannels(ctx context.Context, subscriberID string) ([]views.SubscribedChannel, error) {
	if uuid.Validate(subscriberID) != nil {
		return nil, apperr.BadRequest("invalid subscriber id")
	}
	channels, err := s.store.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []views.SubscribedChannel{}
	}
	return channels, nil
}
