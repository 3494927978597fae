package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const tweetColumns = `id, owner_id, content, created_at, updated_at`

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return conflictOr(err, "insert tweet")
	}
	return nil
}

// FindByID fetches a tweet by identifier.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id uuid.UUID) (models.Tweet, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Tweet{}, err
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
	if err != nil {
		return models.Tweet{}, notFoundOr(err, "select tweet")
	}
	return tweet, nil
}

// UpdateContent replaces the tweet body.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (models.Tweet, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Tweet{}, err
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1
        RETURNING `+tweetColumns, id, content, time.Now().UTC()))
	if err != nil {
		return models.Tweet{}, notFoundOr(err, "update tweet")
	}
	return tweet, nil
}

// Delete removes a tweet.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "tweets", id)
}

// ListForUser returns the owner's tweets, newest first, with like counts and
// whether viewer liked each one.
func (r *PostgresTweetRepository) ListForUser(ctx context.Context, owner, viewer uuid.UUID) ([]models.TweetView, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT t.id, t.content, t.created_at, o.id, o.username, o.full_name, o.avatar,
               (SELECT COUNT(*) FROM likes l WHERE l.tweet_id = t.id),
               EXISTS (SELECT 1 FROM likes l WHERE l.tweet_id = t.id AND l.liked_by = $2)
        FROM tweets t
        JOIN users o ON o.id = t.owner_id
        WHERE t.owner_id = $1
        ORDER BY t.created_at DESC, t.id
    `, owner, viewer)
	if err != nil {
		return nil, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	tweets := []models.TweetView{}
	for rows.Next() {
		var v models.TweetView
		if err := rows.Scan(&v.ID, &v.Content, &v.CreatedAt, &v.Owner.ID, &v.Owner.Username, &v.Owner.FullName,
			&v.Owner.Avatar, &v.LikesCount, &v.IsLikedByCurrentUser); err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tweets: %w", err)
	}
	return tweets, nil
}
