// Package tweets implements the short text posts attached to a channel.
package tweets

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages tweets.
type Service struct {
	store storage.TweetStore
	log   *logger.Logger
}

// New constructs a tweet service.
func New(store storage.TweetStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tweets")
	}
	return &Service{store: store, log: log}
}

// Create posts a tweet.
func (s *Service) Create(ctx context.Context, ownerID, content string) (tweet.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return tweet.Tweet{}, apperr.BadRequest("content is required")
	}

	created, err := s.store.CreateTweet(ctx, tweet.Tweet{OwnerID: ownerID, Content: content})
	if err != nil {
		return tweet.Tweet{}, err
	}
	s.log.WithField("tweet_id", created.ID).Info("tweet created")
	return created, nil
}

// Update rewrites a tweet the caller owns.
func (s *Service) Update(ctx context.Context, userID, tweetID, content string) (tweet.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return tweet.Tweet{}, apperr.BadRequest("content is required")
	}
	t, err := s.owned(ctx, userID, tweetID)
	if err != nil {
		return tweet.Tweet{}, err
	}

	t.Content = content
	updated, err := s.store.UpdateTweet(ctx, t)
	if err != nil {
		return tweet.Tweet{}, err
	}
	return updated, nil
}

// Delete removes a tweet the caller owns, along with its likes.
func (s *Service) Delete(ctx context.Context, userID, tweetID string) error {
	if _, err := s.owned(ctx, userID, tweetID); err != nil {
		return err
	}
	if err := s.store.DeleteTweet(ctx, tweetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("tweet not found")
		}
		return err
	}
	s.log.WithField("tweet_id", tweetID).Info("tweet deleted")
	return nil
}

// ForUser lists a user's tweets newest first, with like stats relative to the
// viewer.
func (s *Service) ForUser(ctx context.Context, ownerID, viewerID string) ([]views.TweetView, error) {
	if uuid.Validate(ownerID) != nil {
		return nil, apperr.BadRequest("invalid user id")
	}
	result, err := s.store.UserTweets(ctx, ownerID, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if result == nil {
		result = []views.TweetView{}
	}
	return result, nil
}

func (s *Service) owned(ctx context.Context, userID, tweetID string) (tweet.Tweet, error) {
	if uuid.Validate(tweetID) != nil {
		return tweet.Tweet{}, apperr.BadRequest("invalid tweet id")
	}
	t, err := s.store.GetTweet(ctx, tweetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tweet.Tweet{}, apperr.NotFound("tweet not found")
		}
		return tweet.Tweet{}, err
	}
	if t.OwnerID != userID {
		return tweet.Tweet{}, apperr.Forbidden("only the owner may modify this tweet")
	}
	return t, nil
}
