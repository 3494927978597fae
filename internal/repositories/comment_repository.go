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

const commentColumns = `id, owner_id, video_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.OwnerID, &c.VideoID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, video_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.OwnerID, comment.VideoID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return conflictOr(err, "insert comment")
	}
	return nil
}

// FindByID fetches a comment by identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Comment{}, err
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return models.Comment{}, notFoundOr(err, "select comment")
	}
	return comment, nil
}

// UpdateContent replaces the comment body.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (models.Comment, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Comment{}, err
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
        RETURNING `+commentColumns, id, content, time.Now().UTC()))
	if err != nil {
		return models.Comment{}, notFoundOr(err, "update comment")
	}
	return comment, nil
}

// Delete removes a comment. Likes on it are left in place.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.pool, "comments", id)
}

// ListForVideo returns a page of comments on a video, newest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID uuid.UUID, page, limit int) (models.Page[models.CommentView], error) {
	page, limit, offset := normalizePage(page, limit)
	result := models.Page[models.CommentView]{Items: []models.CommentView{}, Page: page, Limit: limit}

	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return result, err
	}
	defer conn.Release()

	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments c JOIN users o ON o.id = c.owner_id WHERE c.video_id = $1
    `, videoID).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.content, c.video_id, c.created_at, o.id, o.username, o.full_name, o.avatar,
               (SELECT COUNT(*) FROM likes l WHERE l.comment_id = c.id)
        FROM comments c
        JOIN users o ON o.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id
        LIMIT $2 OFFSET $3
    `, videoID, limit, offset)
	if err != nil {
		return result, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.CommentView
		if err := rows.Scan(&v.ID, &v.Content, &v.VideoID, &v.CreatedAt,
			&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.Avatar, &v.LikesCount); err != nil {
			return result, fmt.Errorf("scan comment: %w", err)
		}
		result.Items = append(result.Items, v)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterate comments: %w", err)
	}
	return result, nil
}

// deleteByID removes one row of table by primary key. table is always a constant.
func deleteByID(ctx context.Context, pool db.Pool, table string, id uuid.UUID) error {
	conn, err := acquire(ctx, pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
