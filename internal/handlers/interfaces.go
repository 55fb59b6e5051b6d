package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/feed"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/search"
	"github.com/clipstream/backend/internal/storage"
)

// UserStore captures the persistence operations required by the auth and profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, principal auth.Principal) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// VideoStore captures persistence for publishing and editing videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, id, ownerID string, update models.VideoUpdate) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
}

// FeedLister serves pages of the video feed.
type FeedLister interface {
	List(ctx context.Context, req feed.Request) (feed.Page, error)
}

// Searcher runs combined local and external searches.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Envelope, error)
}

// Engagement applies likes and comments.
type Engagement interface {
	ToggleLike(ctx context.Context, videoID, userID string) (engagement.LikeResult, error)
	AddComment(ctx context.Context, videoID string, author engagement.Author, text string) (models.Comment, error)
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, profile models.Profile) error
	Find(ctx context.Context, userID string) (models.Profile, error)
}

// MediaStorage stores uploaded media and signs direct uploads.
type MediaStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	PresignUpload(ctx context.Context, key, contentType string) (storage.PresignedUpload, error)
}
