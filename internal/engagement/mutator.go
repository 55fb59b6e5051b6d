// Package engagement applies likes and comments to a single video.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrNotFound indicates the target video does not exist.
	ErrNotFound = errors.New("video not found")
	// ErrInvalidID indicates the video identifier is malformed.
	ErrInvalidID = errors.New("invalid video id")
	// ErrEmptyComment indicates the comment text is blank.
	ErrEmptyComment = errors.New("comment text required")
	// ErrAnonymous indicates the mutation was attempted without a user.
	ErrAnonymous = errors.New("user required")
)

// Store is the subset of the video repository used for engagement.
type Store interface {
	ToggleLike(ctx context.Context, videoID, userID string, at time.Time) (repositories.LikeState, error)
	AppendComment(ctx context.Context, videoID string, comment models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
}

// Author identifies who wrote a comment.
type Author struct {
	UserID   string
	Username string
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

// Mutator applies engagement changes through atomic store operations.
type Mutator struct {
	store   Store
	NowFunc func() time.Time
	NewID   func() string
}

// NewMutator constructs a Mutator.
func NewMutator(store Store) *Mutator {
	return &Mutator{store: store}
}

// ToggleLike adds userID to the video's likes, or removes it if already present.
// The counter never drops below zero.
func (m *Mutator) ToggleLike(ctx context.Context, videoID, userID string) (LikeResult, error) {
	if err := validateID(videoID); err != nil {
		return LikeResult{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return LikeResult{}, ErrAnonymous
	}

	state, err := m.store.ToggleLike(ctx, videoID, userID, m.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return LikeResult{}, ErrNotFound
		}
		return LikeResult{}, fmt.Errorf("toggle like: %w", err)
	}

	return LikeResult{Liked: state.Liked, Likes: state.Likes}, nil
}

// AddComment appends a trimmed, non-empty comment by author and returns it.
func (m *Mutator) AddComment(ctx context.Context, videoID string, author Author, text string) (models.Comment, error) {
	if err := validateID(videoID); err != nil {
		return models.Comment{}, err
	}
	if strings.TrimSpace(author.UserID) == "" {
		return models.Comment{}, ErrAnonymous
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, ErrEmptyComment
	}

	username := strings.TrimSpace(author.Username)
	if username == "" {
		username = "Anonymous"
	}

	comment := models.Comment{
		ID:        m.newID(),
		Text:      text,
		Username:  username,
		UserID:    author.UserID,
		CreatedAt: m.now(),
	}

	if err := m.store.AppendComment(ctx, videoID, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	return comment, nil
}

// ListComments returns the video's comments oldest first.
func (m *Mutator) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	if err := validateID(videoID); err != nil {
		return nil, err
	}

	comments, err := m.store.ListComments(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return ErrInvalidID
	}
	return nil
}

func (m *Mutator) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}

func (m *Mutator) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}
