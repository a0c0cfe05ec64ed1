package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/tweet"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/storage"
)

func (s *Store) CreateTweet(ctx context.Context, t tweet.Tweet) (tweet.Tweet, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.OwnerID, t.Content, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return tweet.Tweet{}, translate(err)
	}
	return t, nil
}

func (s *Store) GetTweet(ctx context.Context, id string) (tweet.Tweet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, content, created_at, updated_at FROM tweets WHERE id = $1
	`, id)

	var t tweet.Tweet
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tweet.Tweet{}, translate(err)
	}
	return t, nil
}

func (s *Store) UpdateTweet(ctx context.Context, t tweet.Tweet) (tweet.Tweet, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1
	`, t.ID, t.Content, time.Now().UTC())
	if err != nil {
		return tweet.Tweet{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return tweet.Tweet{}, storage.ErrNotFound
	}
	return s.GetTweet(ctx, t.ID)
}

func (s *Store) DeleteTweet(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tweet_likes WHERE tweet_id = $1`, id); err != nil {
		return translate(err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) UserTweets(ctx context.Context, ownerID, viewerID string) ([]views.TweetView, error) {
	if _, err := s.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url,
		       (SELECT COUNT(*) FROM tweet_likes WHERE tweet_id = t.id),
		       EXISTS (SELECT 1 FROM tweet_likes WHERE tweet_id = t.id AND user_id = NULLIF($2, '')::uuid)
		FROM tweets t
		JOIN users o ON o.id = t.owner_id
		WHERE t.owner_id = $1
		ORDER BY t.created_at DESC
	`, ownerID, viewerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.TweetView
	for rows.Next() {
		var tv views.TweetView
		if err := rows.Scan(
			&tv.Tweet.ID, &tv.Tweet.OwnerID, &tv.Tweet.Content, &tv.Tweet.CreatedAt, &tv.Tweet.UpdatedAt,
			&tv.Owner.ID, &tv.Owner.Username, &tv.Owner.FullName, &tv.Owner.AvatarURL,
			&tv.LikeCount, &tv.IsLiked,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, tv)
	}
	return result, rows.Err()
}
