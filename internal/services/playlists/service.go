// Package playlists implements playlist CRUD and membership.
package playlists

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/playlist"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages playlists.
type Service struct {
	store storage.PlaylistStore
	log   *logger.Logger
}

// New constructs a playlist service.
func New(store storage.PlaylistStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("playlists")
	}
	return &Service{store: store, log: log}
}

// Create makes an empty playlist.
func (s *Service) Create(ctx context.Context, ownerID, name, description string) (playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, apperr.BadRequest("name is required")
	}

	created, err := s.store.CreatePlaylist(ctx, playlist.Playlist{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return playlist.Playlist{}, err
	}
	s.log.WithField("playlist_id", created.ID).Info("playlist created")
	return created, nil
}

// Get returns the detail view with published members resolved.
func (s *Service) Get(ctx context.Context, playlistID string) (views.PlaylistDetail, error) {
	if err := validID(playlistID, "playlist"); err != nil {
		return views.PlaylistDetail{}, err
	}
	detail, err := s.store.PlaylistDetail(ctx, playlistID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return views.PlaylistDetail{}, apperr.NotFound("playlist not found")
		}
		return views.PlaylistDetail{}, err
	}
	return detail, nil
}

// Update renames a playlist the caller owns.
func (s *Service) Update(ctx context.Context, userID, playlistID, name, description string) (playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, apperr.BadRequest("name is required")
	}
	pl, err := s.owned(ctx, userID, playlistID)
	if err != nil {
		return playlist.Playlist{}, err
	}

	pl.Name = name
	pl.Description = strings.TrimSpace(description)
	updated, err := s.store.UpdatePlaylist(ctx, pl)
	if err != nil {
		return playlist.Playlist{}, err
	}
	return updated, nil
}

// Delete removes a playlist the caller owns. Member videos are untouched.
func (s *Service) Delete(ctx context.Context, userID, playlistID string) error {
	if _, err := s.owned(ctx, userID, playlistID); err != nil {
		return err
	}
	if err := s.store.DeletePlaylist(ctx, playlistID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("playlist not found")
		}
		return err
	}
	s.log.WithField("playlist_id", playlistID).Info("playlist deleted")
	return nil
}

// AddVideo appends a video to a playlist the caller owns. Re-adding a member
// is a no-op.
func (s *Service) AddVideo(ctx context.Context, userID, playlistID, videoID string) (playlist.Playlist, error) {
	if err := validID(videoID, "video"); err != nil {
		return playlist.Playlist{}, err
	}
	if _, err := s.owned(ctx, userID, playlistID); err != nil {
		return playlist.Playlist{}, err
	}

	updated, err := s.store.AddPlaylistVideo(ctx, playlistID, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return playlist.Playlist{}, apperr.NotFound("video not found")
		}
		return playlist.Playlist{}, err
	}
	return updated, nil
}

// RemoveVideo removes a member from a playlist the caller owns.
func (s *Service) RemoveVideo(ctx context.Context, userID, playlistID, videoID string) (playlist.Playlist, error) {
	if err := validID(videoID, "video"); err != nil {
		return playlist.Playlist{}, err
	}
	if _, err := s.owned(ctx, userID, playlistID); err != nil {
		return playlist.Playlist{}, err
	}

	updated, err := s.store.RemovePlaylistVideo(ctx, playlistID, videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return playlist.Playlist{}, apperr.NotFound("video not in playlist")
		}
		return playlist.Playlist{}, err
	}
	return updated, nil
}

// ForUser lists a user's playlists, newest first.
func (s *Service) ForUser(ctx context.Context, ownerID string) ([]views.PlaylistDetail, error) {
	if err := validID(ownerID, "user"); err != nil {
		return nil, err
	}
	result, err := s.store.UserPlaylists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []views.PlaylistDetail{}
	}
	return result, nil
}

func (s *Service) owned(ctx context.Context, userID, playlistID string) (playlist.Playlist, error) {
	if err := validID(playlistID, "playlist"); err != nil {
		return playlist.Playlist{}, err
	}
	pl, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return playlist.Playlist{}, apperr.NotFound("playlist not found")
		}
		return playlist.Playlist{}, err
	}
	if pl.OwnerID != userID {
		return playlist.Playlist{}, apperr.Forbidden("only the owner may modify this playlist")
	}
	return pl, nil
}

func validID(id, kind string) error {
	if uuid.Validate(id) != nil {
		return apperr.BadRequest("invalid " + kind + " id")
	}
	return nil
}
