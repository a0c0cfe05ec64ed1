package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/domain/video"
	"github.com/clipstream/clipstream/internal/domain/views"
)

// nullableVideo scans the columns of an optional video row, as produced by a
// left lateral join.
type nullableVideo struct {
	ID           sql.NullString
	OwnerID      sql.NullString
	VideoURL     sql.NullString
	ThumbnailURL sql.NullString
	Title        sql.NullString
	Description  sql.NullString
	Duration     sql.NullFloat64
	Views        sql.NullInt64
	IsPublished  sql.NullBool
	CreatedAt    sql.NullTime
	UpdatedAt    sql.NullTime
}

func (n nullableVideo) value() (video.Video, bool) {
	if !n.ID.Valid {
		return video.Video{}, false
	}
	return video.Video{
		ID:           n.ID.String,
		OwnerID:      n.OwnerID.String,
		VideoURL:     n.VideoURL.String,
		ThumbnailURL: n.ThumbnailURL.String,
		Title:        n.Title.String,
		Description:  n.Description.String,
		Duration:     n.Duration.Float64,
		Views:        n.Views.Int64,
		IsPublished:  n.IsPublished.Bool,
		CreatedAt:    n.CreatedAt.Time,
		UpdatedAt:    n.UpdatedAt.Time,
	}, true
}

// togglePair is the race-safe toggle shared by all like and subscription
// endpoints. The INSERT rides on the pair primary key: exactly one of two
// concurrent inserts for the same pair lands, and the loser's DELETE then
// observes the winner's row. The outcome is always a clean flip, never a
// duplicate or double delete.
func (s *Store) togglePair(ctx context.Context, table, ownerCol, memberCol, ownerID, memberID string) (bool, error) {
	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (%s, %s) DO NOTHING
	`, table, ownerCol, memberCol, ownerCol, memberCol)

	result, err := s.db.ExecContext(ctx, insert, ownerID, memberID, time.Now().UTC())
	if err != nil {
		return false, translate(err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return true, nil
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table, ownerCol, memberCol)
	if _, err := s.db.ExecContext(ctx, del, ownerID, memberID); err != nil {
		return false, translate(err)
	}
	return false, nil
}

func (s *Store) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error) {
	return s.togglePair(ctx, "video_likes", "video_id", "user_id", videoID, userID)
}

func (s *Store) ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error) {
	return s.togglePair(ctx, "comment_likes", "comment_id", "user_id", commentID, userID)
}

func (s *Store) ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, error) {
	return s.togglePair(ctx, "tweet_likes", "tweet_id", "user_id", tweetID, userID)
}

func (s *Store) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return s.togglePair(ctx, "subscriptions", "channel_id", "subscriber_id", channelID, subscriberID)
}

func (s *Store) Subscribers(ctx context.Context, channelID, viewerID string) ([]views.SubscriberInfo, error) {
	if _, err := s.GetUser(ctx, channelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.full_name, u.avatar_url,
		       (SELECT COUNT(*) FROM subscriptions WHERE channel_id = u.id),
		       EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = u.id AND subscriber_id = NULLIF($2, '')::uuid)
		FROM subscriptions sub
		JOIN users u ON u.id = sub.subscriber_id
		WHERE sub.channel_id = $1
		ORDER BY u.username
	`, channelID, viewerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.SubscriberInfo
	for rows.Next() {
		var info views.SubscriberInfo
		if err := rows.Scan(
			&info.ID, &info.Username, &info.FullName, &info.AvatarURL,
			&info.SubscriberCount, &info.IsSubscribed,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, info)
	}
	return result, rows.Err()
}

func (s *Store) SubscribedChannels(ctx context.Context, subscriberID string) ([]views.SubscribedChannel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.full_name, u.avatar_url,
		       v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at
		FROM subscriptions sub
		JOIN users u ON u.id = sub.channel_id
		LEFT JOIN LATERAL (
			SELECT * FROM videos
			WHERE owner_id = u.id AND is_published
			ORDER BY created_at DESC
			LIMIT 1
		) v ON TRUE
		WHERE sub.subscriber_id = $1
		ORDER BY u.username
	`, subscriberID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []views.SubscribedChannel
	for rows.Next() {
		var (
			entry views.SubscribedChannel
			v     nullableVideo
		)
		if err := rows.Scan(
			&entry.Channel.ID, &entry.Channel.Username, &entry.Channel.FullName, &entry.Channel.AvatarURL,
			&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, translate(err)
		}
		if latest, ok := v.value(); ok {
			entry.LatestVideo = &views.VideoSummary{Video: latest, Owner: entry.Channel}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
