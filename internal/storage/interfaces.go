// Package storage defines the persistence interfaces the services are built
// on, together with the failure sentinels both backends translate their
// driver errors into.
package storage

import (
	"context"
	"errors"

	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/playlist"
	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
)

var (
	// ErrNotFound reports an absent entity.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate reports a unique-constraint violation.
	ErrDuplicate = errors.New("storage: duplicate")
	// ErrTokenMismatch reports a refresh-token compare-and-swap that found a
	// different stored token, i.e. the presented token was already rotated.
	ErrTokenMismatch = errors.New("storage: refresh token mismatch")
)

// VideoSort names a whitelisted sort field for video listings.
type VideoSort string

const (
	SortCreatedAt VideoSort = "created_at"
	SortViews     VideoSort = "views"
	SortDuration  VideoSort = "duration"
	SortTitle     VideoSort = "title"
)

// VideoFilter narrows a video listing. Only published videos are ever
// returned; Query matches title and description, OwnerID scopes to a channel.
type VideoFilter struct {
	Query     string
	OwnerID   string
	SortBy    VideoSort
	Ascending bool
}

// UserStore persists accounts and the views rooted at them.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	// GetUserByLogin resolves a case-normalized username or email.
	GetUserByLogin(ctx context.Context, usernameOrEmail string) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)

	// SetRefreshToken overwrites the stored refresh token; empty clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken atomically replaces old with new and fails with
	// ErrTokenMismatch when the stored token is not exactly old.
	RotateRefreshToken(ctx context.Context, userID, old, new string) error

	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]views.WatchHistoryEntry, error)
	// AddWatchHistory appends with set semantics: re-adding a present video
	// is a no-op and keeps the original position.
	AddWatchHistory(ctx context.Context, userID, videoID string) error
}

// VideoStore persists videos and the aggregate views over them.
type VideoStore interface {
	CreateVideo(ctx context.Context, v video.Video) (video.Video, error)
	GetVideo(ctx context.Context, id string) (video.Video, error)
	UpdateVideo(ctx context.Context, v video.Video) (video.Video, error)
	// DeleteVideo removes the video and cascades: its likes, its comments and
	// their likes, its watch-history rows and its playlist memberships.
	DeleteVideo(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error

	VideoDetail(ctx context.Context, id, viewerID string) (views.VideoDetail, error)
	SearchVideos(ctx context.Context, f VideoFilter, p pagination.Params) ([]views.VideoSummary, int, error)
	LikedVideos(ctx context.Context, userID string) ([]views.VideoSummary, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]views.DashboardVideo, error)
	DashboardStats(ctx context.Context, ownerID string) (views.DashboardStats, error)
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetComment(ctx context.Context, id string) (comment.Comment, error)
	UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	// DeleteComment removes the comment and its likes.
	DeleteComment(ctx context.Context, id string) error
	ListVideoComments(ctx context.Context, videoID, viewerID string, p pagination.Params) ([]views.CommentView, int, error)
}

// EngagementStore persists the like and subscription relations. Every toggle
// is atomic at the storage layer: concurrent calls for the same pair can never
// produce a duplicate row or a double delete.
type EngagementStore interface {
	ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error)
	ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)

	Subscribers(ctx context.Context, channelID, viewerID string) ([]views.SubscriberInfo, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]views.SubscribedChannel, error)
}

// PlaylistStore persists playlists and their memberships.
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, pl playlist.Playlist) (playlist.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error)
	UpdatePlaylist(ctx context.Context, pl playlist.Playlist) (playlist.Playlist, error)
	DeletePlaylist(ctx context.Context, id string) error
	// AddPlaylistVideo has set semantics: adding a present video is a no-op.
	AddPlaylistVideo(ctx context.Context, playlistID, videoID string) (playlist.Playlist, error)
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) (playlist.Playlist, error)

	PlaylistDetail(ctx context.Context, id string) (views.PlaylistDetail, error)
	UserPlaylists(ctx context.Context, ownerID string) ([]views.PlaylistDetail, error)
}

// TweetStore persists tweets.
type TweetStore interface {
	CreateTweet(ctx context.Context, t tweet.Tweet) (tweet.Tweet, error)
	GetTweet(ctx context.Context, id string) (tweet.Tweet, error)
	UpdateTweet(ctx context.Context, t tweet.Tweet) (tweet.Tweet, error)
	// DeleteTweet removes the tweet and its likes.
	DeleteTweet(ctx context.Context, id string) error
	UserTweets(ctx context.Context, ownerID, viewerID string) ([]views.TweetView, error)
}
