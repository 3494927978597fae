package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle unsubscribes the subscriber if subscribed, otherwise subscribes. It
// reports whether the subscription exists afterwards.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, uuid.New(), subscriberID, channelID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}

// CountSubscribers returns how many users subscribe to the channel.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

// SubscribedChannels lists the channels a subscriber follows, each with its most
// recently created video if it has one.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscriptionView, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT s.id, c.id, c.username, c.full_name, c.avatar,
               lv.id, lv.video_file, lv.thumbnail, lv.owner_id, lv.title, lv.description,
               lv.duration, lv.views, lv.created_at
        FROM subscriptions s
        JOIN users c ON c.id = s.channel_id
        LEFT JOIN LATERAL (
            SELECT id, video_file, thumbnail, owner_id, title, description, duration, views, created_at
            FROM videos
            WHERE owner_id = c.id
            ORDER BY created_at DESC
            LIMIT 1
        ) lv ON TRUE
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	views := []models.SubscriptionView{}
	for rows.Next() {
		var (
			v           models.SubscriptionView
			videoID     *uuid.UUID
			videoFile   *string
			thumbnail   *string
			ownerID     *uuid.UUID
			title       *string
			description *string
			duration    *float64
			viewsCount  *int64
			createdAt   *time.Time
		)
		ch := &v.SubscribedChannel
		if err := rows.Scan(&v.ID, &ch.ID, &ch.Username, &ch.FullName, &ch.Avatar,
			&videoID, &videoFile, &thumbnail, &ownerID, &title, &description, &duration, &viewsCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subscribed channel: %w", err)
		}
		if videoID != nil {
			ch.LatestVideo = &models.LatestVideo{
				ID:          *videoID,
				VideoFile:   *videoFile,
				Thumbnail:   *thumbnail,
				OwnerID:     *ownerID,
				Title:       *title,
				Description: *description,
				Duration:    *duration,
				Views:       *viewsCount,
				CreatedAt:   *createdAt,
			}
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribed channels: %w", err)
	}
	return views, nil
}

// Subscribers lists the users subscribed to a channel, newest first.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID uuid.UUID) ([]models.OwnerSummary, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []models.OwnerSummary{}
	for rows.Next() {
		var u models.OwnerSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subscribers, nil
}
