package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const videoColumns = `id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at`

// videoViewColumns selects a video aliased v joined with its owner aliased o.
const videoViewColumns = `v.id, v.owner_id, v.video_file, v.thumbnail, v.title, v.description, v.duration, v.views,
        v.is_published, v.created_at, v.updated_at, o.id, o.username, o.full_name, o.avatar`

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func videoScanTargets(v *models.Video) []any {
	return []any{&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description, &v.Duration,
		&v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt}
}

func videoViewScanTargets(v *models.VideoView) []any {
	return append(videoScanTargets(&v.Video), &v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.Avatar)
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(videoScanTargets(&v)...)
	return v, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoFile, video.Thumbnail, video.Title, video.Description, video.Duration,
		video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return conflictOr(err, "insert video")
	}
	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id uuid.UUID) (models.Video, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Video{}, err
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, notFoundOr(err, "select video")
	}
	return video, nil
}

// FindView fetches a video joined with its owner.
func (r *PostgresVideoRepository) FindView(ctx context.Context, id uuid.UUID) (models.VideoView, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.VideoView{}, err
	}
	defer conn.Release()

	var view models.VideoView
	err = conn.QueryRow(ctx, `
        SELECT `+videoViewColumns+`
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.id = $1
    `, id).Scan(videoViewScanTargets(&view)...)
	if err != nil {
		return models.VideoView{}, notFoundOr(err, "select video view")
	}
	return view, nil
}

// Update persists title, description and thumbnail changes.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) (models.Video, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Video{}, err
	}
	defer conn.Release()

	updated, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, updated_at = $5
        WHERE id = $1
        RETURNING `+videoColumns, video.ID, video.Title, video.Description, video.Thumbnail, time.Now().UTC()))
	if err != nil {
		return models.Video{}, notFoundOr(err, "update video")
	}
	return updated, nil
}

// TogglePublished flips the publish flag atomically and returns the new record.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id uuid.UUID) (models.Video, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return models.Video{}, err
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = $2
        WHERE id = $1
        RETURNING `+videoColumns, id, time.Now().UTC()))
	if err != nil {
		return models.Video{}, notFoundOr(err, "toggle video publish status")
	}
	return video, nil
}

// IncrementViews adds one view to the video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video record. Comments, likes and history rows referencing it
// are left in place.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublished returns a page of published videos matching the query.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, q models.VideoQuery) (models.Page[models.VideoView], error) {
	page, limit, offset := normalizePage(q.Page, q.Limit)
	result := models.Page[models.VideoView]{Items: []models.VideoView{}, Page: page, Limit: limit}

	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return result, err
	}
	defer conn.Release()

	where := []string{"v.is_published = TRUE"}
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}
	if q.OwnerID != uuid.Nil {
		args = append(args, q.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	filter := strings.Join(where, " AND ")

	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v WHERE `+filter, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count videos: %w", err)
	}

	sortColumn, ok := videoSortColumns[q.SortBy]
	if !ok {
		sortColumn = videoSortColumns["createdAt"]
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	args = append(args, limit, offset)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE %s
        ORDER BY %s %s, v.id
        LIMIT $%d OFFSET $%d
    `, videoViewColumns, filter, sortColumn, direction, len(args)-1, len(args)), args...)
	if err != nil {
		return result, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var view models.VideoView
		if err := rows.Scan(videoViewScanTargets(&view)...); err != nil {
			return result, fmt.Errorf("scan video: %w", err)
		}
		result.Items = append(result.Items, view)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterate videos: %w", err)
	}
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
