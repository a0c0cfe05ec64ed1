// Package views holds the denormalized read models produced by the
// aggregation queries. Each type is a pure projection of persisted state at
// query time; none of them are stored.
package views

import (
	"time"

	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/video"
)

// OwnerSummary is the reduced profile joined into video, comment and playlist
// views.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// ChannelProfile is the public channel page for a user, including the
// viewer-dependent subscription flag.
type ChannelProfile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	AvatarURL       string    `json:"avatar"`
	CoverImageURL   string    `json:"coverImage,omitempty"`
	SubscriberCount int       `json:"subscribersCount"`
	SubscribedTo    int       `json:"channelsSubscribedToCount"`
	IsSubscribed    bool      `json:"isSubscribed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ChannelSummary is the owner block embedded in a video detail: the reduced
// profile plus its subscriber stats relative to the viewer.
type ChannelSummary struct {
	OwnerSummary
	SubscriberCount int  `json:"subscribersCount"`
	IsSubscribed    bool `json:"isSubscribed"`
}

// VideoDetail is the single-video page view.
type VideoDetail struct {
	video.Video
	Owner     ChannelSummary `json:"owner"`
	LikeCount int            `json:"likesCount"`
	IsLiked   bool           `json:"isLiked"`
}

// VideoSummary is a video row in listings, with its owner resolved.
type VideoSummary struct {
	video.Video
	Owner OwnerSummary `json:"owner"`
}

// WatchHistoryEntry is one resolved entry of a viewer's watch history.
type WatchHistoryEntry struct {
	video.Video
	Owner     OwnerSummary `json:"owner"`
	WatchedAt time.Time    `json:"watchedAt"`
}

// CommentView is a comment row with its like stats and owner resolved.
type CommentView struct {
	comment.Comment
	Owner     OwnerSummary `json:"owner"`
	LikeCount int          `json:"likesCount"`
	IsLiked   bool         `json:"isLiked"`
}

// TweetView is a tweet row with like stats and owner resolved.
type TweetView struct {
	tweet.Tweet
	Owner     OwnerSummary `json:"owner"`
	LikeCount int          `json:"likesCount"`
	IsLiked   bool         `json:"isLiked"`
}

// PlaylistDetail is a playlist with only its published videos resolved, plus
// aggregate counters across them.
type PlaylistDetail struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       OwnerSummary   `json:"owner"`
	Videos      []VideoSummary `json:"videos"`
	TotalVideos int            `json:"totalVideos"`
	TotalViews  int64          `json:"totalViews"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// DashboardStats aggregates a channel's totals, scoped to its owner.
type DashboardStats struct {
	TotalSubscribers int   `json:"totalSubscribers"`
	TotalVideos      int   `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int   `json:"totalLikes"`
}

// DashboardVideo is a video row in the owner's dashboard listing.
type DashboardVideo struct {
	video.Video
	LikeCount int `json:"likesCount"`
}

// SubscriberInfo is one subscriber of a channel, with that subscriber's own
// channel stats relative to the viewer.
type SubscriberInfo struct {
	OwnerSummary
	SubscriberCount int  `json:"subscribersCount"`
	IsSubscribed    bool `json:"isSubscribed"`
}

// SubscribedChannel is one channel a user subscribes to, with the channel's
// most recently published video if any.
type SubscribedChannel struct {
	Channel     OwnerSummary  `json:"channel"`
	LatestVideo *VideoSummary `json:"latestVideo,omitempty"`
}
