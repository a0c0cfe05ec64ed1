package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clipstream/clipstream/internal/domain/playlist"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
)

func (s *Store) CreatePlaylist(ctx context.Context, pl playlist.Playlist) (playlist.Playlist, error) {
	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pl.CreatedAt = now
	pl.UpdatedAt = now
	pl.VideoIDs = nil

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pl.ID, pl.OwnerID, pl.Name, pl.Description, pl.CreatedAt, pl.UpdatedAt)
	if err != nil {
		return playlist.Playlist{}, translate(err)
	}
	return pl, nil
}

func (s *Store) GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
		       COALESCE((SELECT ARRAY_AGG(video_id ORDER BY added_at) FROM playlist_videos WHERE playlist_id = p.id), '{}')
		FROM playlists p
		WHERE p.id = $1
	`, id)

	var (
		pl  playlist.Playlist
		ids pq.StringArray
	)
	if err := row.Scan(&pl.ID, &pl.OwnerID, &pl.Name, &pl.Description, &pl.CreatedAt, &pl.UpdatedAt, &ids); err != nil {
		return playlist.Playlist{}, translate(err)
	}
	pl.VideoIDs = []string(ids)
	return pl, nil
}

func (s *Store) UpdatePlaylist(ctx context.Context, pl playlist.Playlist) (playlist.Playlist, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
	`, pl.ID, pl.Name, pl.Description, time.Now().UTC())
	if err != nil {
		return playlist.Playlist{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	return s.GetPlaylist(ctx, pl.ID)
}

func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
		return translate(err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

// AddPlaylistVideo gets its set semantics from the pair primary key; a
// repeat add conflicts and keeps the original position.
func (s *Store) AddPlaylistVideo(ctx context.Context, playlistID, videoID string) (playlist.Playlist, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return playlist.Playlist{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO playlist_videos (playlist_id, video_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (playlist_id, video_id) DO NOTHING
	`, playlistID, videoID, time.Now().UTC())
	if err != nil {
		return playlist.Playlist{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		_, _ = s.db.ExecContext(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, time.Now().UTC())
	}
	return s.GetPlaylist(ctx, playlistID)
}

func (s *Store) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) (playlist.Playlist, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
	`, playlistID, videoID)
	if err != nil {
		return playlist.Playlist{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return playlist.Playlist{}, storage.ErrNotFound
	}
	_, _ = s.db.ExecContext(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, time.Now().UTC())
	return s.GetPlaylist(ctx, playlistID)
}

func (s *Store) PlaylistDetail(ctx context.Context, id string) (views.PlaylistDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url
		FROM playlists p
		JOIN users o ON o.id = p.owner_id
		WHERE p.id = $1
	`, id)

	var detail views.PlaylistDetail
	if err := row.Scan(
		&detail.ID, &detail.Name, &detail.Description, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.Owner.ID, &detail.Owner.Username, &detail.Owner.FullName, &detail.Owner.AvatarURL,
	); err != nil {
		return views.PlaylistDetail{}, translate(err)
	}

	videos, err := s.playlistVideos(ctx, id)
	if err != nil {
		return views.PlaylistDetail{}, err
	}
	detail.Videos = videos
	for _, v := range videos {
		detail.TotalVideos++
		detail.TotalViews += v.Views
	}
	return detail, nil
}

func (s *Store) UserPlaylists(ctx context.Context, ownerID string) ([]views.PlaylistDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id FROM playlists p WHERE p.owner_id = $1 ORDER BY p.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]views.PlaylistDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := s.PlaylistDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, nil
}

// playlistVideos resolves the playlist's published members in added order.
func (s *Store) playlistVideos(ctx context.Context, playlistID string) ([]views.VideoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url
		FROM playlist_videos pv
		JOIN videos v ON v.id = pv.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE pv.playlist_id = $1 AND v.is_published
		ORDER BY pv.added_at
	`, playlistID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []views.VideoSummary{}
	for rows.Next() {
		var sum views.VideoSummary
		if err := rows.Scan(
			&sum.Video.ID, &sum.Video.OwnerID, &sum.Video.VideoURL, &sum.Video.ThumbnailURL,
			&sum.Video.Title, &sum.Video.Description, &sum.Video.Duration, &sum.Video.Views,
			&sum.Video.IsPublished, &sum.Video.CreatedAt, &sum.Video.UpdatedAt,
			&sum.Owner.ID, &sum.Owner.Username, &sum.Owner.FullName, &sum.Owner.AvatarURL,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}
