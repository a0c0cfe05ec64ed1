// Package app wires the services over their stores into one Application the
// HTTP layer and tests construct in a single call.
package app

import (
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/services/comments"
	"github.com/clipstream/clipstream/internal/services/dashboard"
	"github.com/clipstream/clipstream/internal/services/engagement"
	"github.com/clipstream/clipstream/internal/services/playlists"
	"github.com/clipstream/clipstream/internal/services/tweets"
	"github.com/clipstream/clipstream/internal/services/users"
	"github.com/clipstream/clipstream/internal/services/videos"
	"github.com/clipstream/clipstream/internal/storage"
	memorystore "github.com/clipstream/clipstream/internal/storage/memory"
	"github.com/clipstream/clipstream/internal/token"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Users      storage.UserStore
	Videos     storage.VideoStore
	Comments   storage.CommentStore
	Engagement storage.EngagementStore
	Playlists  storage.PlaylistStore
	Tweets     storage.TweetStore
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	// Stores holds the resolved persistence backends after nil-defaulting.
	Stores Stores
	Issuer *token.Issuer

	Users      *users.Service
	Videos     *videos.Service
	Comments   *comments.Service
	Engagement *engagement.Service
	Playlists  *playlists.Service
	Tweets     *tweets.Service
	Dashboard  *dashboard.Service
}

// New builds a fully initialised application. Blobs defaults to the in-memory
// blob store when nil.
func New(tokenCfg token.Config, stores Stores, blobs media.BlobStore, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if blobs == nil {
		blobs = media.NewMemoryStore()
	}

	mem := memorystore.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Videos == nil {
		stores.Videos = mem
	}
	if stores.Comments == nil {
		stores.Comments = mem
	}
	if stores.Engagement == nil {
		stores.Engagement = mem
	}
	if stores.Playlists == nil {
		stores.Playlists = mem
	}
	if stores.Tweets == nil {
		stores.Tweets = mem
	}

	issuer, err := token.NewIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}

	return &Application{
		log:        log,
		Stores:     stores,
		Issuer:     issuer,
		Users:      users.New(stores.Users, issuer, blobs, log),
		Videos:     videos.New(stores.Videos, stores.Users, blobs, log),
		Comments:   comments.New(stores.Comments, log),
		Engagement: engagement.New(stores.Engagement, stores.Videos, log),
		Playlists:  playlists.New(stores.Playlists, log),
		Tweets:     tweets.New(stores.Tweets, log),
		Dashboard:  dashboard.New(stores.Videos, log),
	}, nil
}
