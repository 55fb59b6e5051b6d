package repositories

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// VideoOrder selects the sort applied to feed listings.
type VideoOrder int

const (
	// OrderRecent sorts newest first.
	OrderRecent VideoOrder = iota
	// OrderTrending sorts by likes, then views, then recency.
	OrderTrending
)

// LikeState is the outcome of an atomic like toggle.
type LikeState struct {
	Liked bool
	Likes int64
}

// VideoRepository exposes data access for published videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, id, ownerID string, update models.VideoUpdate) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListVideos(ctx context.Context, order VideoOrder, offset, limit int) ([]models.Video, error)
	CountVideos(ctx context.Context) (int64, error)
	SearchVideos(ctx context.Context, query string, limit int) ([]models.Video, error)
	ToggleLike(ctx context.Context, videoID, userID string, at time.Time) (LikeState, error)
	AppendComment(ctx context.Context, videoID string, comment models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
}
