package youtube

import (
	"context"
	"time"
)

// ShortMaxSeconds is the longest duration still considered short-form.
const ShortMaxSeconds = 60

// Short is a short-form video returned by the provider. It is never persisted.
type Short struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	Duration     int       `json:"duration"`
	IsShort      bool      `json:"isShort"`
	EmbedURL     string    `json:"embedUrl"`
	WatchURL     string    `json:"watchUrl"`
}

// Source searches the provider for short-form videos.
type Source interface {
	Search(ctx context.Context, query string, maxResults int) ([]Short, error)
}

func embedURL(id string) string { return "https://www.youtube.com/embed/" + id }

func watchURL(id string) string { return "https://www.youtube.com/watch?v=" + id }
