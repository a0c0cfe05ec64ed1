package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
)

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.AvatarURL, &u.CoverImageURL, &u.PasswordHash, &u.RefreshToken,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.PasswordHash, u.RefreshToken, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByLogin(ctx context.Context, usernameOrEmail string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
	`, usernameOrEmail)
	return scanUser(row)
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, full_name = $4, avatar_url = $5, cover_image_url = $6, password_hash = $7, updated_at = $8
		WHERE id = $1
	`, u.ID, u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) SetRefreshToken(ctx context.Context, userID, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1
	`, userID, token, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RotateRefreshToken is the compare-and-swap at the heart of the session
// rotation: the UPDATE matches only when the stored token is exactly old, so
// two concurrent refreshes with the same token can never both succeed.
func (s *Store) RotateRefreshToken(ctx context.Context, userID, old, new string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = $3, updated_at = $4
		WHERE id = $1 AND refresh_token = $2
	`, userID, old, new, time.Now().UTC())
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return storage.ErrTokenMismatch
}

func (s *Store) ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url, u.created_at,
		       (SELECT COUNT(*) FROM subscriptions WHERE channel_id = u.id),
		       (SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = u.id),
		       EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = u.id AND subscriber_id = NULLIF($2, '')::uuid)
		FROM users u
		WHERE LOWER(u.username) = LOWER($1)
	`, username, viewerID)

	var p views.ChannelProfile
	err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.AvatarURL, &p.CoverImageURL, &p.CreatedAt,
		&p.SubscriberCount, &p.SubscribedTo, &p.IsSubscribed,
	)
	if err != nil {
		return views.ChannelProfile{}, translate(err)
	}
	return p, nil
}

func (s *Store) WatchHistory(ctx context.Context, userID string) ([]views.WatchHistoryEntry, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url,
		       wh.watched_at
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.WatchHistoryEntry
	for rows.Next() {
		var e views.WatchHistoryEntry
		if err := rows.Scan(
			&e.Video.ID, &e.Video.OwnerID, &e.Video.VideoURL, &e.Video.ThumbnailURL,
			&e.Video.Title, &e.Video.Description, &e.Video.Duration, &e.Video.Views,
			&e.Video.IsPublished, &e.Video.CreatedAt, &e.Video.UpdatedAt,
			&e.Owner.ID, &e.Owner.Username, &e.Owner.FullName, &e.Owner.AvatarURL,
			&e.WatchedAt,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// AddWatchHistory relies on the pair primary key for set semantics: a repeat
// insert conflicts and leaves the original watched_at untouched.
func (s *Store) AddWatchHistory(ctx context.Context, userID, videoID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, video_id) DO NOTHING
	`, userID, videoID, time.Now().UTC())
	return translate(err)
}
