// Package memory is an in-memory implementation of the storage interfaces. It
// is safe for concurrent use and is primarily intended for tests and local
// development. Toggles and the refresh-token swap run under the store mutex,
// giving them the same atomicity the SQL backend gets from its constraints.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/playlist"
	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
)

type historyEntry struct {
	videoID   string
	watchedAt time.Time
}

type playlistEntry struct {
	videoID string
	addedAt time.Time
}

// Store holds every collection behind a single mutex.
type Store struct {
	mu sync.RWMutex

	users    map[string]user.User
	videos   map[string]video.Video
	comments map[string]comment.Comment
	tweets   map[string]tweet.Tweet

	playlists      map[string]playlist.Playlist
	playlistVideos map[string][]playlistEntry

	videoLikes    map[string]map[string]time.Time // videoID -> userID -> liked at
	commentLikes  map[string]map[string]time.Time // commentID -> userID -> liked at
	tweetLikes    map[string]map[string]time.Time // tweetID -> userID -> liked at
	subscriptions map[string]map[string]time.Time // channelID -> subscriberID -> since

	watchHistory map[string][]historyEntry // userID -> ordered first-watch entries
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.VideoStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.EngagementStore = (*Store)(nil)
var _ storage.PlaylistStore = (*Store)(nil)
var _ storage.TweetStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:          make(map[string]user.User),
		videos:         make(map[string]video.Video),
		comments:       make(map[string]comment.Comment),
		tweets:         make(map[string]tweet.Tweet),
		playlists:      make(map[string]playlist.Playlist),
		playlistVideos: make(map[string][]playlistEntry),
		videoLikes:     make(map[string]map[string]time.Time),
		commentLikes:   make(map[string]map[string]time.Time),
		tweetLikes:     make(map[string]map[string]time.Time),
		subscriptions:  make(map[string]map[string]time.Time),
		watchHistory:   make(map[string][]historyEntry),
	}
}

// UserStore --------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, storage.ErrDuplicate
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByLogin(_ context.Context, usernameOrEmail string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, usernameOrEmail) || strings.EqualFold(u.Email, usernameOrEmail) {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email) {
			return user.User{}, storage.ErrDuplicate
		}
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) RotateRefreshToken(_ context.Context, userID, old, new string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if u.RefreshToken != old {
		return storage.ErrTokenMismatch
	}
	u.RefreshToken = new
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) ChannelProfile(_ context.Context, username, viewerID string) (views.ChannelProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var channel user.User
	found := false
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			channel = u
			found = true
			break
		}
	}
	if !found {
		return views.ChannelProfile{}, storage.ErrNotFound
	}

	subscribers := s.subscriptions[channel.ID]
	subscribedTo := 0
	for _, subs := range s.subscriptions {
		if _, ok := subs[channel.ID]; ok {
			subscribedTo++
		}
	}
	_, isSubscribed := subscribers[viewerID]

	return views.ChannelProfile{
		ID:              channel.ID,
		Username:        channel.Username,
		Email:           channel.Email,
		FullName:        channel.FullName,
		AvatarURL:       channel.AvatarURL,
		CoverImageURL:   channel.CoverImageURL,
		SubscriberCount: len(subscribers),
		SubscribedTo:    subscribedTo,
		IsSubscribed:    isSubscribed,
		CreatedAt:       channel.CreatedAt,
	}, nil
}

func (s *Store) WatchHistory(_ context.Context, userID string) ([]views.WatchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, storage.ErrNotFound
	}

	entries := s.watchHistory[userID]
	result := make([]views.WatchHistoryEntry, 0, len(entries))
	for _, e := range entries {
		v, ok := s.videos[e.videoID]
		if !ok {
			continue
		}
		owner, _ := s.ownerSummaryLocked(v.OwnerID)
		result = append(result, views.WatchHistoryEntry{
			Video:     v,
			Owner:     owner,
			WatchedAt: e.watchedAt,
		})
	}
	return result, nil
}

func (s *Store) AddWatchHistory(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return storage.ErrNotFound
	}
	for _, e := range s.watchHistory[userID] {
		if e.videoID == videoID {
			return nil
		}
	}
	s.watchHistory[userID] = append(s.watchHistory[userID], historyEntry{
		videoID:   videoID,
		watchedAt: time.Now().UTC(),
	})
	return nil
}

// VideoStore -------------------------------------------------------------

func (s *Store) CreateVideo(_ context.Context, v video.Video) (video.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.videos[v.ID] = v
	return v, nil
}

func (s *Store) GetVideo(_ context.Context, id string) (video.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return video.Video{}, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) UpdateVideo(_ context.Context, v video.Video) (video.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.videos[v.ID]
	if !ok {
		return video.Video{}, storage.ErrNotFound
	}
	v.OwnerID = existing.OwnerID
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()
	s.videos[v.ID] = v
	return v, nil
}

func (s *Store) DeleteVideo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.videos, id)
	delete(s.videoLikes, id)

	for cid, c := range s.comments {
		if c.VideoID == id {
			delete(s.comments, cid)
			delete(s.commentLikes, cid)
		}
	}
	for userID, entries := range s.watchHistory {
		kept := entries[:0]
		for _, e := range entries {
			if e.videoID != id {
				kept = append(kept, e)
			}
		}
		s.watchHistory[userID] = kept
	}
	for plID, entries := range s.playlistVideos {
		kept := entries[:0]
		for _, e := range entries {
			if e.videoID != id {
				kept = append(kept, e)
			}
		}
		s.playlistVideos[plID] = kept
	}
	return nil
}

func (s *Store) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return storage.ErrNotFound
	}
	v.Views++
	s.videos[id] = v
	return nil
}

func (s *Store) VideoDetail(_ context.Context, id, viewerID string) (views.VideoDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return views.VideoDetail{}, storage.ErrNotFound
	}

	likes := s.videoLikes[id]
	_, isLiked := likes[viewerID]

	ownerSubs := s.subscriptions[v.OwnerID]
	_, isSubscribed := ownerSubs[viewerID]
	owner, _ := s.ownerSummaryLocked(v.OwnerID)

	return views.VideoDetail{
		Video: v,
		Owner: views.ChannelSummary{
			OwnerSummary:    owner,
			SubscriberCount: len(ownerSubs),
			IsSubscribed:    isSubscribed,
		},
		LikeCount: len(likes),
		IsLiked:   isLiked,
	}, nil
}

func (s *Store) SearchVideos(_ context.Context, f storage.VideoFilter, p pagination.Params) ([]views.VideoSummary, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []video.Video
	needle := strings.ToLower(strings.TrimSpace(f.Query))
	for _, v := range s.videos {
		if !v.IsPublished {
			continue
		}
		if f.OwnerID != "" && v.OwnerID != f.OwnerID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(v.Title), needle) &&
			!strings.Contains(strings.ToLower(v.Description), needle) {
			continue
		}
		matched = append(matched, v)
	}

	sortVideos(matched, f.SortBy, f.Ascending)

	paged, total := pagination.Slice(matched, p)
	result := make([]views.VideoSummary, 0, len(paged))
	for _, v := range paged {
		owner, _ := s.ownerSummaryLocked(v.OwnerID)
		result = append(result, views.VideoSummary{Video: v, Owner: owner})
	}
	return result, total, nil
}

func (s *Store) LikedVideos(_ context.Context, userID string) ([]views.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type likedVideo struct {
		video   video.Video
		likedAt time.Time
	}
	var liked []likedVideo
	for videoID, likers := range s.videoLikes {
		likedAt, ok := likers[userID]
		if !ok {
			continue
		}
		v, ok := s.videos[videoID]
		if !ok || !v.IsPublished {
			continue
		}
		liked = append(liked, likedVideo{video: v, likedAt: likedAt})
	}
	// Newest like first.
	sort.SliceStable(liked, func(i, j int) bool {
		return liked[j].likedAt.Before(liked[i].likedAt)
	})

	result := make([]views.VideoSummary, 0, len(liked))
	for _, lv := range liked {
		owner, _ := s.ownerSummaryLocked(lv.video.OwnerID)
		result = append(result, views.VideoSummary{Video: lv.video, Owner: owner})
	}
	return result, nil
}

func (s *Store) ChannelVideos(_ context.Context, ownerID string) ([]views.DashboardVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []video.Video
	for _, v := range s.videos {
		if v.OwnerID == ownerID {
			owned = append(owned, v)
		}
	}
	sortVideos(owned, storage.SortCreatedAt, false)

	result := make([]views.DashboardVideo, 0, len(owned))
	for _, v := range owned {
		result = append(result, views.DashboardVideo{
			Video:     v,
			LikeCount: len(s.videoLikes[v.ID]),
		})
	}
	return result, nil
}

func (s *Store) DashboardStats(_ context.Context, ownerID string) (views.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := views.DashboardStats{
		TotalSubscribers: len(s.subscriptions[ownerID]),
	}
	for _, v := range s.videos {
		if v.OwnerID != ownerID {
			continue
		}
		stats.TotalVideos++
		stats.TotalViews += v.Views
		stats.TotalLikes += len(s.videoLikes[v.ID])
	}
	return stats, nil
}

// latestPublishedLocked returns the channel's most recently created published
// video, if any.
func (s *Store) latestPublishedLocked(ownerID string) (video.Video, bool) {
	var latest video.Video
	found := false
	for _, v := range s.videos {
		if v.OwnerID != ownerID || !v.IsPublished {
			continue
		}
		if !found || latest.CreatedAt.Before(v.CreatedAt) {
			latest = v
			found = true
		}
	}
	return latest, found
}

// ownerSummaryLocked resolves the singular owner relation. Zero matches yield
// the zero value and false; the caller decides whether that is an anomaly.
func (s *Store) ownerSummaryLocked(userID string) (views.OwnerSummary, bool) {
	u, ok := s.users[userID]
	if !ok {
		return views.OwnerSummary{}, false
	}
	return views.OwnerSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}, true
}

func sortVideos(vs []video.Video, by storage.VideoSort, asc bool) {
	less := func(a, b video.Video) bool {
		switch by {
		case storage.SortViews:
			return a.Views < b.Views
		case storage.SortDuration:
			return a.Duration < b.Duration
		case storage.SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(vs, func(i, j int) bool {
		if asc {
			return less(vs[i], vs[j])
		}
		// Swapped operands, not negation: equal keys must compare false in
		// both directions or stability is lost.
		return less(vs[j], vs[i])
	})
}
