package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// LocalVideo is the search view of a catalogue record.
type LocalVideo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Username     string    `json:"username"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Likes        int64     `json:"likes"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DecodeError reports a catalogue record that cannot be shown in search results.
type DecodeError struct {
	ID    string
	Field string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("video %s missing required field %s", e.ID, e.Field)
}

// DecodeLocalVideo validates a stored record, returning either the search view or
// a *DecodeError naming the first missing required field.
func DecodeLocalVideo(v models.Video) (LocalVideo, error) {
	switch {
	case strings.TrimSpace(v.Title) == "":
		return LocalVideo{}, &DecodeError{ID: v.ID, Field: "title"}
	case strings.TrimSpace(v.Username) == "":
		return LocalVideo{}, &DecodeError{ID: v.ID, Field: "username"}
	case strings.TrimSpace(v.VideoURL) == "":
		return LocalVideo{}, &DecodeError{ID: v.ID, Field: "videoUrl"}
	}

	likes, views := v.Likes, v.Views
	if likes < 0 {
		likes = 0
	}
	if views < 0 {
		views = 0
	}

	return LocalVideo{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Username:     v.Username,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Likes:        likes,
		Views:        views,
		CreatedAt:    v.CreatedAt,
	}, nil
}

func decodeAll(ctx context.Context, records []models.Video) []LocalVideo {
	logger := logging.FromContext(ctx)

	videos := make([]LocalVideo, 0, len(records))
	for _, record := range records {
		video, err := DecodeLocalVideo(record)
		if err != nil {
			logger.Warn("dropping malformed video from search results", "videoId", record.ID, "error", err)
			continue
		}
		videos = append(videos, video)
	}
	return videos
}
