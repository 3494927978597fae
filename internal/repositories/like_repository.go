package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

var likeTargetColumns = map[models.LikeTarget]string{
	models.LikeTargetVideo:   "video_id",
	models.LikeTargetComment: "comment_id",
	models.LikeTargetTweet:   "tweet_id",
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the user's like on the target if one exists, otherwise adds it.
// It reports whether the target is liked afterwards. The partial unique indexes on
// likes keep concurrent toggles from creating duplicates.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, target models.LikeTarget, targetID, userID uuid.UUID) (bool, error) {
	if !target.Valid() {
		return false, fmt.Errorf("unknown like target %q", target)
	}
	column := likeTargetColumns[target]

	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE liked_by = $1 AND `+column+` = $2`, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `, uuid.New(), userID, targetID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// LikedVideos lists the videos a user liked, most recently liked first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID uuid.UUID) ([]models.LikedVideo, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns+`, l.created_at
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	liked := []models.LikedVideo{}
	for rows.Next() {
		var entry models.LikedVideo
		if err := rows.Scan(append(videoViewScanTargets(&entry.VideoView), &entry.LikedAt)...); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		liked = append(liked, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}
	return liked, nil
}
