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

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Avatar, &user.CoverImage,
		&user.Password, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return conflictOr(err, "insert user")
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.User{}, err
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, notFoundOr(err, "select user by id")
	}
	return user, nil
}

// FindByIdentifier fetches the user whose username or email matches. Empty
// arguments never match.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, username, email string) (models.User, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.User{}, err
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        LIMIT 1
    `, username, email))
	if err != nil {
		return models.User{}, notFoundOr(err, "select user by identifier")
	}
	return user, nil
}

// SetRefreshToken stores the refresh token currently valid for the user.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.execOne(ctx, "set refresh token", `
        UPDATE users SET refresh_token = $2 WHERE id = $1
    `, id, token)
}

// RotateRefreshToken replaces current with next only if current is still the token on
// record. ErrNotFound means the token was already rotated or revoked.
func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, id uuid.UUID, current, next string) error {
	return r.execOne(ctx, "rotate refresh token", `
        UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2
    `, id, current, next)
}

// ClearRefreshToken revokes the user's refresh token.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "clear refresh token", `
        UPDATE users SET refresh_token = NULL WHERE id = $1
    `, id)
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.execOne(ctx, "update password", `
        UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, hash, time.Now().UTC())
}

// UpdateAccount changes the display name and email of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (models.User, error) {
	return r.updateReturning(ctx, "update account", `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, time.Now().UTC())
}

// UpdateAvatar stores a new avatar URL.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (models.User, error) {
	return r.updateReturning(ctx, "update avatar", `
        UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1
        RETURNING `+userColumns, id, url, time.Now().UTC())
}

// UpdateCoverImage stores a new cover image URL.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) (models.User, error) {
	return r.updateReturning(ctx, "update cover image", `
        UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1
        RETURNING `+userColumns, id, url, time.Now().UTC())
}

// ChannelProfile loads a user's public page by username along with subscription
// counts and whether viewer is subscribed. A nil viewer is never subscribed.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (models.ChannelProfile, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.ChannelProfile{}, err
	}
	defer conn.Release()

	var p models.ChannelProfile
	err = conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.cover_image,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = $1
    `, username, viewer).Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.Avatar, &p.CoverImage,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		return models.ChannelProfile{}, notFoundOr(err, "select channel profile")
	}
	return p, nil
}

// RecordWatch moves videoID to the front of the user's watch history.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID uuid.UUID) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record watch history: %w", err)
	}
	return nil
}

// WatchHistory lists the videos a user watched, most recent first.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns+`, w.watched_at
        FROM watch_history w
        JOIN videos v ON v.id = w.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE w.user_id = $1
        ORDER BY w.watched_at DESC
        LIMIT 200
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []models.WatchedVideo{}
	for rows.Next() {
		var entry models.WatchedVideo
		if err := rows.Scan(append(videoViewScanTargets(&entry.VideoView), &entry.WatchedAt)...); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return history, nil
}

func (r *PostgresUserRepository) execOne(ctx context.Context, action, sql string, args ...any) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return conflictOr(err, action)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, action, sql string, args ...any) (models.User, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.User{}, err
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, notFoundOr(err, action)
	}
	return user, nil
}
