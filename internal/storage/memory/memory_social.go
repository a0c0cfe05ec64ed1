package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/playlist"
	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
)

// CommentStore ----------------------------------------------------------

func (s *Store) CreateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[c.VideoID]; !ok {
		return comment.Comment{}, storage.ErrNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) GetComment(_ context.Context, id string) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return comment.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) UpdateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.comments[c.ID]
	if !ok {
		return comment.Comment{}, storage.ErrNotFound
	}
	existing.Content = c.Content
	existing.UpdatedAt = time.Now().UTC()
	s.comments[c.ID] = existing
	return existing, nil
}

func (s *Store) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	delete(s.commentLikes, id)
	return nil
}

func (s *Store) ListVideoComments(_ context.Context, videoID, viewerID string, p pagination.Params) ([]views.CommentView, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.videos[videoID]; !ok {
		return nil, 0, storage.ErrNotFound
	}

	var matched []comment.Comment
	for _, c := range s.comments {
		if c.VideoID == videoID {
			matched = append(matched, c)
		}
	}
	// Newest first.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[j].CreatedAt.Before(matched[i].CreatedAt)
	})

	paged, total := pagination.Slice(matched, p)
	result := make([]views.CommentView, 0, len(paged))
	for _, c := range paged {
		likes := s.commentLikes[c.ID]
		_, isLiked := likes[viewerID]
		owner, _ := s.ownerSummaryLocked(c.OwnerID)
		result = append(result, views.CommentView{
			Comment:   c,
			Owner:     owner,
			LikeCount: len(likes),
			IsLiked:   isLiked,
		})
	}
	return result, total, nil
}

// EngagementStore -------------------------------------------------------

func (s *Store) ToggleVideoLike(_ context.Context, userID, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return false, storage.ErrNotFound
	}
	return togglePair(s.videoLikes, videoID, userID), nil
}

func (s *Store) ToggleCommentLike(_ context.Context, userID, commentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return false, storage.ErrNotFound
	}
	return togglePair(s.commentLikes, commentID, userID), nil
}

func (s *Store) ToggleTweetLike(_ context.Context, userID, tweetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tweets[tweetID]; !ok {
		return false, storage.ErrNotFound
	}
	return togglePair(s.tweetLikes, tweetID, userID), nil
}

func (s *Store) ToggleSubscription(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[channelID]; !ok {
		return false, storage.ErrNotFound
	}
	return togglePair(s.subscriptions, channelID, subscriberID), nil
}

// togglePair flips membership of member in the set keyed by owner and reports
// whether the pair is present afterwards. Membership records when the pair was
// created. Callers hold the write lock, so the check-then-act is atomic.
func togglePair(sets map[string]map[string]time.Time, owner, member string) bool {
	set := sets[owner]
	if set == nil {
		set = make(map[string]time.Time)
		sets[owner] = set
	}
	if _, ok := set[member]; ok {
		delete(set, member)
		return false
	}
	set[member] = time.Now().UTC()
	return true
}

func (s *Store) Subscribers(_ context.Context, channelID, viewerID string) ([]views.SubscriberInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[channelID]; !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]views.SubscriberInfo, 0, len(s.subscriptions[channelID]))
	for subscriberID := range s.subscriptions[channelID] {
		summary, ok := s.ownerSummaryLocked(subscriberID)
		if !ok {
			continue
		}
		theirSubs := s.subscriptions[subscriberID]
		_, viewerFollows := theirSubs[viewerID]
		result = append(result, views.SubscriberInfo{
			OwnerSummary:    summary,
			SubscriberCount: len(theirSubs),
			IsSubscribed:    viewerFollows,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (s *Store) SubscribedChannels(_ context.Context, subscriberID string) ([]views.SubscribedChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []views.SubscribedChannel
	for channelID, subs := range s.subscriptions {
		if _, ok := subs[subscriberID]; !ok {
			continue
		}
		summary, ok := s.ownerSummaryLocked(channelID)
		if !ok {
			continue
		}
		entry := views.SubscribedChannel{Channel: summary}
		if latest, ok := s.latestPublishedLocked(channelID); ok {
			owner, _ := s.ownerSummaryLocked(latest.OwnerID)
			entry.LatestVideo = &views.VideoSummary{Video: latest, Owner: owner}
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Channel.Username < result[j].Channel.Username })
	return result, nil
}

// PlaylistStore ---------------------------------------------------------

func (s *Store) CreatePlaylist(_ context.Context, pl playlist.Playlist) (playlist.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pl.CreatedAt = now
	pl.UpdatedAt = now
	pl.VideoIDs = nil
	s.playlists[pl.ID] = pl
	return s.playlistLocked(pl.ID), nil
}

func (s *Store) GetPlaylist(_ context.Context, id string) (playlist.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.playlists[id]; !ok {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	return s.playlistLocked(id), nil
}

func (s *Store) UpdatePlaylist(_ context.Context, pl playlist.Playlist) (playlist.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.playlists[pl.ID]
	if !ok {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	existing.Name = pl.Name
	existing.Description = pl.Description
	existing.UpdatedAt = time.Now().UTC()
	s.playlists[pl.ID] = existing
	return s.playlistLocked(pl.ID), nil
}

func (s *Store) DeletePlaylist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.playlists, id)
	delete(s.playlistVideos, id)
	return nil
}

func (s *Store) AddPlaylistVideo(_ context.Context, playlistID, videoID string) (playlist.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.playlists[playlistID]
	if !ok {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	if _, ok := s.videos[videoID]; !ok {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	for _, e := range s.playlistVideos[playlistID] {
		if e.videoID == videoID {
			return s.playlistLocked(playlistID), nil
		}
	}
	s.playlistVideos[playlistID] = append(s.playlistVideos[playlistID], playlistEntry{
		videoID: videoID,
		addedAt: time.Now().UTC(),
	})
	pl.UpdatedAt = time.Now().UTC()
	s.playlists[playlistID] = pl
	return s.playlistLocked(playlistID), nil
}

func (s *Store) RemovePlaylistVideo(_ context.Context, playlistID, videoID string) (playlist.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.playlists[playlistID]
	if !ok {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	entries := s.playlistVideos[playlistID]
	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if e.videoID == videoID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	s.playlistVideos[playlistID] = kept
	pl.UpdatedAt = time.Now().UTC()
	s.playlists[playlistID] = pl
	return s.playlistLocked(playlistID), nil
}

func (s *Store) PlaylistDetail(_ context.Context, id string) (views.PlaylistDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.playlists[id]; !ok {
		return views.PlaylistDetail{}, storage.ErrNotFound
	}
	return s.playlistDetailLocked(id), nil
}

func (s *Store) UserPlaylists(_ context.Context, ownerID string) ([]views.PlaylistDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []playlist.Playlist
	for _, pl := range s.playlists {
		if pl.OwnerID == ownerID {
			owned = append(owned, pl)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[j].CreatedAt.Before(owned[i].CreatedAt)
	})

	result := make([]views.PlaylistDetail, 0, len(owned))
	for _, pl := range owned {
		result = append(result, s.playlistDetailLocked(pl.ID))
	}
	return result, nil
}

// playlistLocked materializes the membership slice in insertion order.
func (s *Store) playlistLocked(id string) playlist.Playlist {
	pl := s.playlists[id]
	entries := s.playlistVideos[id]
	pl.VideoIDs = make([]string, 0, len(entries))
	for _, e := range entries {
		pl.VideoIDs = append(pl.VideoIDs, e.videoID)
	}
	return pl
}

// playlistDetailLocked resolves only published member videos; counters cover
// exactly the resolved set.
func (s *Store) playlistDetailLocked(id string) views.PlaylistDetail {
	pl := s.playlists[id]
	owner, _ := s.ownerSummaryLocked(pl.OwnerID)
	detail := views.PlaylistDetail{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Owner:       owner,
		Videos:      []views.VideoSummary{},
		CreatedAt:   pl.CreatedAt,
		UpdatedAt:   pl.UpdatedAt,
	}
	for _, e := range s.playlistVideos[id] {
		v, ok := s.videos[e.videoID]
		if !ok || !v.IsPublished {
			continue
		}
		videoOwner, _ := s.ownerSummaryLocked(v.OwnerID)
		detail.Videos = append(detail.Videos, views.VideoSummary{Video: v, Owner: videoOwner})
		detail.TotalVideos++
		detail.TotalViews += v.Views
	}
	return detail
}

// TweetStore ------------------------------------------------------------

func (s *Store) CreateTweet(_ context.Context, t tweet.Tweet) (tweet.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tweets[t.ID] = t
	return t, nil
}

func (s *Store) GetTweet(_ context.Context, id string) (tweet.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tweets[id]
	if !ok {
		return tweet.Tweet{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTweet(_ context.Context, t tweet.Tweet) (tweet.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tweets[t.ID]
	if !ok {
		return tweet.Tweet{}, storage.ErrNotFound
	}
	existing.Content = t.Content
	existing.UpdatedAt = time.Now().UTC()
	s.tweets[t.ID] = existing
	return existing, nil
}

func (s *Store) DeleteTweet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tweets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tweets, id)
	delete(s.tweetLikes, id)
	return nil
}

func (s *Store) UserTweets(_ context.Context, ownerID, viewerID string) ([]views.TweetView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[ownerID]; !ok {
		return nil, storage.ErrNotFound
	}

	var matched []tweet.Tweet
	for _, t := range s.tweets {
		if t.OwnerID == ownerID {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[j].CreatedAt.Before(matched[i].CreatedAt)
	})

	result := make([]views.TweetView, 0, len(matched))
	for _, t := range matched {
		likes := s.tweetLikes[t.ID]
		_, isLiked := likes[viewerID]
		owner, _ := s.ownerSummaryLocked(t.OwnerID)
		result = append(result, views.TweetView{
			Tweet:     t,
			Owner:     owner,
			LikeCount: len(likes),
			IsLiked:   isLiked,
		})
	}
	return result, nil
}
