package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const videoColumns = `id, title, description, video_url, thumbnail_url, user_id, username,
        likes, liked_by, views, comments, controls, transform_width, transform_height, transform_crop,
        created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos. Like and
// comment mutations are single statements so concurrent writers never lose updates.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comments, err := json.Marshal(nonNilComments(video.Comments))
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}

	likedBy := video.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (`+videoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::JSONB, $12, $13, $14, $15, $16, $17)
    `, video.ID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.UserID, video.Username,
		int64(len(likedBy)), likedBy, video.Views, string(comments), video.Controls,
		video.Transformation.Width, video.Transformation.Height, video.Transformation.Crop,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID loads a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Update applies the non-nil fields of update to a video owned by ownerID.
func (r *PostgresVideoRepository) Update(ctx context.Context, id, ownerID string, update models.VideoUpdate) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var width, height *int
	var crop *string
	if t := update.Transformation; t != nil {
		width, height, crop = &t.Width, &t.Height, &t.Crop
	}

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = COALESCE($3, title),
            description = COALESCE($4, description),
            video_url = COALESCE($5, video_url),
            thumbnail_url = COALESCE($6, thumbnail_url),
            controls = COALESCE($7, controls),
            transform_width = COALESCE($8, transform_width),
            transform_height = COALESCE($9, transform_height),
            transform_crop = COALESCE($10, transform_crop),
            updated_at = $11
        WHERE id = $1 AND user_id = $2
        RETURNING `+videoColumns,
		id, ownerID, update.Title, update.Description, update.VideoURL, update.ThumbnailURL, update.Controls,
		width, height, crop, update.UpdatedAt)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// Delete removes a video owned by ownerID.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns every video published by ownerID, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return r.query(ctx, "list videos by owner", `
        SELECT `+videoColumns+`
        FROM videos
        WHERE user_id = $1
        ORDER BY created_at DESC, id
    `, ownerID)
}

// ListVideos returns one window of the feed in the requested order.
func (r *PostgresVideoRepository) ListVideos(ctx context.Context, order VideoOrder, offset, limit int) ([]models.Video, error) {
	orderBy := "created_at DESC, id"
	if order == OrderTrending {
		orderBy = "likes DESC, views DESC, created_at DESC, id"
	}

	return r.query(ctx, "list videos", `
        SELECT `+videoColumns+`
        FROM videos
        ORDER BY `+orderBy+`
        LIMIT $1 OFFSET $2
    `, limit, offset)
}

// CountVideos returns the number of stored videos.
func (r *PostgresVideoRepository) CountVideos(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM videos`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return total, nil
}

// SearchVideos performs a case-insensitive substring match on title, description and
// username. The query is matched literally.
func (r *PostgresVideoRepository) SearchVideos(ctx context.Context, query string, limit int) ([]models.Video, error) {
	pattern := "%" + escapeLike(query) + "%"

	return r.query(ctx, "search videos", `
        SELECT `+videoColumns+`
        FROM videos
        WHERE title ILIKE $1 OR description ILIKE $1 OR username ILIKE $1
        ORDER BY created_at DESC, id
        LIMIT $2
    `, pattern, limit)
}

// ToggleLike flips userID's membership in the video's like set and adjusts the
// counter in the same statement.
func (r *PostgresVideoRepository) ToggleLike(ctx context.Context, videoID, userID string, at time.Time) (LikeState, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return LikeState{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var state LikeState
	err = conn.QueryRow(ctx, `
        UPDATE videos
        SET liked_by = CASE WHEN $2::TEXT = ANY(liked_by)
                            THEN array_remove(liked_by, $2::TEXT)
                            ELSE array_append(liked_by, $2::TEXT) END,
            likes = CASE WHEN $2::TEXT = ANY(liked_by)
                         THEN GREATEST(likes - 1, 0)
                         ELSE likes + 1 END,
            updated_at = $3
        WHERE id = $1
        RETURNING $2::TEXT = ANY(liked_by), likes
    `, videoID, userID, at).Scan(&state.Liked, &state.Likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LikeState{}, ErrNotFound
		}
		return LikeState{}, fmt.Errorf("toggle like: %w", err)
	}
	return state, nil
}

// AppendComment adds comment to the end of the video's comment thread.
func (r *PostgresVideoRepository) AppendComment(ctx context.Context, videoID string, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	payload, err := json.Marshal([]models.Comment{comment})
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET comments = comments || $2::JSONB, updated_at = $3
        WHERE id = $1
    `, videoID, string(payload), comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns a video's comments in insertion order.
func (r *PostgresVideoRepository) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var raw []byte
	if err := conn.QueryRow(ctx, `SELECT comments FROM videos WHERE id = $1`, videoID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select comments: %w", err)
	}

	comments, err := decodeComments(raw)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *PostgresVideoRepository) query(ctx context.Context, op, sql string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}

	return videos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var (
		video    models.Video
		comments []byte
	)
	if err := row.Scan(
		&video.ID, &video.Title, &video.Description, &video.VideoURL, &video.ThumbnailURL, &video.UserID, &video.Username,
		&video.Likes, &video.LikedBy, &video.Views, &comments, &video.Controls,
		&video.Transformation.Width, &video.Transformation.Height, &video.Transformation.Crop,
		&video.CreatedAt, &video.UpdatedAt,
	); err != nil {
		return models.Video{}, err
	}

	decoded, err := decodeComments(comments)
	if err != nil {
		return models.Video{}, err
	}
	video.Comments = decoded
	if video.LikedBy == nil {
		video.LikedBy = []string{}
	}
	return video, nil
}

func decodeComments(raw []byte) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	if len(raw) == 0 {
		return comments, nil
	}
	if err := json.Unmarshal(raw, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return nonNilComments(comments), nil
}

func nonNilComments(comments []models.Comment) []models.Comment {
	if comments == nil {
		return []models.Comment{}
	}
	return comments
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
