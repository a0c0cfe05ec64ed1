package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/comment"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
)

func (s *Store) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.VideoID, c.OwnerID, c.Content, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return comment.Comment{}, translate(err)
	}
	return c, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (comment.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, video_id, owner_id, content, created_at, updated_at
		FROM comments WHERE id = $1
	`, id)

	var c comment.Comment
	if err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return comment.Comment{}, translate(err)
	}
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
	`, c.ID, c.Content, time.Now().UTC())
	if err != nil {
		return comment.Comment{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return comment.Comment{}, storage.ErrNotFound
	}
	return s.GetComment(ctx, c.ID)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = $1`, id); err != nil {
		return translate(err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) ListVideoComments(ctx context.Context, videoID, viewerID string, p pagination.Params) ([]views.CommentView, int, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url,
		       (SELECT COUNT(*) FROM comment_likes WHERE comment_id = c.id),
		       EXISTS (SELECT 1 FROM comment_likes WHERE comment_id = c.id AND user_id = NULLIF($2, '')::uuid),
		       COUNT(*) OVER () AS total
		FROM comments c
		JOIN users o ON o.id = c.owner_id
		WHERE c.video_id = $1
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4
	`, videoID, viewerID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	var (
		result []views.CommentView
		total  int
	)
	for rows.Next() {
		var cv views.CommentView
		if err := rows.Scan(
			&cv.Comment.ID, &cv.Comment.VideoID, &cv.Comment.OwnerID, &cv.Comment.Content,
			&cv.Comment.CreatedAt, &cv.Comment.UpdatedAt,
			&cv.Owner.ID, &cv.Owner.Username, &cv.Owner.FullName, &cv.Owner.AvatarURL,
			&cv.LikeCount, &cv.IsLiked,
			&total,
		); err != nil {
			return nil, 0, translate(err)
		}
		result = append(result, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(result) == 0 {
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID)
		if err := row.Scan(&total); err != nil {
			return nil, 0, translate(err)
		}
	}
	return result, total, nil
}
