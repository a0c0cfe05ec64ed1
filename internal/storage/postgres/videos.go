package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/pagination"
	"github.com/clipstream/clipstream/internal/storage"
)

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

func scanVideo(row interface{ Scan(...any) error }) (video.Video, error) {
	var v video.Video
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return video.Video{}, translate(err)
	}
	return v, nil
}

func (s *Store) CreateVideo(ctx context.Context, v video.Video) (video.Video, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, v.ID, v.OwnerID, v.VideoURL, v.ThumbnailURL, v.Title, v.Description, v.Duration, v.Views, v.IsPublished, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return video.Video{}, translate(err)
	}
	return v, nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (video.Video, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE id = $1
	`, id)
	return scanVideo(row)
}

func (s *Store) UpdateVideo(ctx context.Context, v video.Video) (video.Video, error) {
	v.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET video_url = $2, thumbnail_url = $3, title = $4, description = $5, duration = $6, is_published = $7, updated_at = $8
		WHERE id = $1
	`, v.ID, v.VideoURL, v.ThumbnailURL, v.Title, v.Description, v.Duration, v.IsPublished, v.UpdatedAt)
	if err != nil {
		return video.Video{}, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return video.Video{}, storage.ErrNotFound
	}
	return s.GetVideo(ctx, v.ID)
}

// DeleteVideo removes the video and everything hanging off it in one
// transaction, so a failure partway leaves the graph intact.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE video_id = $1)`,
		`DELETE FROM comments WHERE video_id = $1`,
		`DELETE FROM video_likes WHERE video_id = $1`,
		`DELETE FROM watch_history WHERE video_id = $1`,
		`DELETE FROM playlist_videos WHERE video_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return translate(err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) IncrementViews(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE videos SET views = views + 1 WHERE id = $1
	`, id)
	if err != nil {
		return translate(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) VideoDetail(ctx context.Context, id, viewerID string) (views.VideoDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url,
		       (SELECT COUNT(*) FROM subscriptions WHERE channel_id = o.id),
		       EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = o.id AND subscriber_id = NULLIF($2, '')::uuid),
		       (SELECT COUNT(*) FROM video_likes WHERE video_id = v.id),
		       EXISTS (SELECT 1 FROM video_likes WHERE video_id = v.id AND user_id = NULLIF($2, '')::uuid)
		FROM videos v
		JOIN users o ON o.id = v.owner_id
		WHERE v.id = $1
	`, id, viewerID)

	var d views.VideoDetail
	err := row.Scan(
		&d.Video.ID, &d.Video.OwnerID, &d.Video.VideoURL, &d.Video.ThumbnailURL,
		&d.Video.Title, &d.Video.Description, &d.Video.Duration, &d.Video.Views,
		&d.Video.IsPublished, &d.Video.CreatedAt, &d.Video.UpdatedAt,
		&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.AvatarURL,
		&d.Owner.SubscriberCount, &d.Owner.IsSubscribed,
		&d.LikeCount, &d.IsLiked,
	)
	if err != nil {
		return views.VideoDetail{}, translate(err)
	}
	return d, nil
}

// sortColumn maps the whitelisted sort names to columns. Anything else falls
// back to created_at, so user input never reaches the ORDER BY clause.
func sortColumn(by storage.VideoSort) string {
	switch by {
	case storage.SortViews:
		return "v.views"
	case storage.SortDuration:
		return "v.duration"
	case storage.SortTitle:
		return "LOWER(v.title)"
	default:
		return "v.created_at"
	}
}

func (s *Store) SearchVideos(ctx context.Context, f storage.VideoFilter, p pagination.Params) ([]views.VideoSummary, int, error) {
	p = p.Normalize()

	direction := "DESC"
	if f.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url,
		       COUNT(*) OVER () AS total
		FROM videos v
		JOIN users o ON o.id = v.owner_id
		WHERE v.is_published
		  AND ($1 = '' OR v.title ILIKE '%%' || $1 || '%%' OR v.description ILIKE '%%' || $1 || '%%')
		  AND ($2 = '' OR v.owner_id = NULLIF($2, '')::uuid)
		ORDER BY %s %s
		LIMIT $3 OFFSET $4
	`, sortColumn(f.SortBy), direction)

	rows, err := s.db.QueryContext(ctx, query, f.Query, f.OwnerID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	var (
		result []views.VideoSummary
		total  int
	)
	for rows.Next() {
		var sum views.VideoSummary
		if err := rows.Scan(
			&sum.Video.ID, &sum.Video.OwnerID, &sum.Video.VideoURL, &sum.Video.ThumbnailURL,
			&sum.Video.Title, &sum.Video.Description, &sum.Video.Duration, &sum.Video.Views,
			&sum.Video.IsPublished, &sum.Video.CreatedAt, &sum.Video.UpdatedAt,
			&sum.Owner.ID, &sum.Owner.Username, &sum.Owner.FullName, &sum.Owner.AvatarURL,
			&total,
		); err != nil {
			return nil, 0, translate(err)
		}
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// A page past the end returns no rows and so no window total; recount so
	// the envelope still reports the real totals.
	if len(result) == 0 {
		row := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM videos v
			WHERE v.is_published
			  AND ($1 = '' OR v.title ILIKE '%' || $1 || '%' OR v.description ILIKE '%' || $1 || '%')
			  AND ($2 = '' OR v.owner_id = NULLIF($2, '')::uuid)
		`, f.Query, f.OwnerID)
		if err := row.Scan(&total); err != nil {
			return nil, 0, translate(err)
		}
	}
	return result, total, nil
}

func (s *Store) LikedVideos(ctx context.Context, userID string) ([]views.VideoSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.id, o.username, o.full_name, o.avatar_url
		FROM video_likes vl
		JOIN videos v ON v.id = vl.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE vl.user_id = $1 AND v.is_published
		ORDER BY vl.created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.VideoSummary
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

func (s *Store) ChannelVideos(ctx context.Context, ownerID string) ([]views.DashboardVideo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       (SELECT COUNT(*) FROM video_likes WHERE video_id = v.id)
		FROM videos v
		WHERE v.owner_id = $1
		ORDER BY v.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.DashboardVideo
	for rows.Next() {
		var d views.DashboardVideo
		if err := rows.Scan(
			&d.Video.ID, &d.Video.OwnerID, &d.Video.VideoURL, &d.Video.ThumbnailURL,
			&d.Video.Title, &d.Video.Description, &d.Video.Duration, &d.Video.Views,
			&d.Video.IsPublished, &d.Video.CreatedAt, &d.Video.UpdatedAt,
			&d.LikeCount,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) DashboardStats(ctx context.Context, ownerID string) (views.DashboardStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
		       (SELECT COUNT(*) FROM videos WHERE owner_id = $1),
		       (SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1),
		       (SELECT COUNT(*) FROM video_likes vl JOIN videos v ON v.id = vl.video_id WHERE v.owner_id = $1)
	`, ownerID)

	var stats views.DashboardStats
	if err := row.Scan(&stats.TotalSubscribers, &stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes); err != nil {
		return views.DashboardStats{}, translate(err)
	}
	return stats, nil
}
