package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the YouTube Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// maxResultsLimit is the largest page the search endpoint accepts.
const maxResultsLimit = 50

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Retry      *RetryConfig
}

// Client queries the YouTube Data API for short-form videos.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewClient constructs a Client. A missing API key is not an error here; Search
// reports ErrNotConfigured so callers can degrade.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	retry := DefaultRetryConfig
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		retry:      retry,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string     `json:"title"`
		Description  string     `json:"description"`
		ChannelTitle string     `json:"channelTitle"`
		PublishedAt  string     `json:"publishedAt"`
		Thumbnails   thumbnails `json:"thumbnails"`
	} `json:"snippet"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default *thumbnail `json:"default"`
	Medium  *thumbnail `json:"medium"`
	High    *thumbnail `json:"high"`
}

// best returns the highest resolution thumbnail available.
func (t thumbnails) best() string {
	for _, candidate := range []*thumbnail{t.High, t.Medium, t.Default} {
		if candidate != nil && candidate.URL != "" {
			return candidate.URL
		}
	}
	return ""
}

type statsResponse struct {
	Items []statsItem `json:"items"`
}

type statsItem struct {
	ID         string `json:"id"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// Search runs a keyword search restricted to short videos, then looks up statistics
// for exactly the returned ids. Candidates are joined with their statistics by id;
// candidates the statistics call omits, or whose duration exceeds ShortMaxSeconds,
// are dropped.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Short, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > maxResultsLimit {
		maxResults = maxResultsLimit
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query+" #shorts")
	params.Set("type", "video")
	params.Set("videoDuration", "short")
	params.Set("order", "relevance")
	params.Set("maxResults", strconv.Itoa(maxResults))

	var found searchResponse
	if err := c.getJSON(ctx, "search", params, &found); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(found.Items))
	seen := make(map[string]struct{}, len(found.Items))
	for _, item := range found.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []Short{}, nil
	}

	statsParams := url.Values{}
	statsParams.Set("part", "statistics,contentDetails")
	statsParams.Set("id", strings.Join(ids, ","))

	var stats statsResponse
	if err := c.getJSON(ctx, "videos", statsParams, &stats); err != nil {
		return nil, err
	}

	byID := make(map[string]statsItem, len(stats.Items))
	for _, item := range stats.Items {
		byID[item.ID] = item
	}

	shorts := make([]Short, 0, len(ids))
	for _, item := range found.Items {
		id := item.ID.VideoID
		st, ok := byID[id]
		if !ok {
			continue
		}
		// Consume the entry so duplicate candidates produce one result.
		delete(byID, id)

		duration := ParseDuration(st.ContentDetails.Duration)
		if duration > ShortMaxSeconds {
			continue
		}

		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		shorts = append(shorts, Short{
			VideoID:      id,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails.best(),
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  published,
			ViewCount:    parseCount(st.Statistics.ViewCount),
			LikeCount:    parseCount(st.Statistics.LikeCount),
			Duration:     duration,
			IsShort:      true,
			EmbedURL:     embedURL(id),
			WatchURL:     watchURL(id),
		})
	}

	return shorts, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()

	body, err := retryDo(ctx, c.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(snippet)}
		}

		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	})
	if err != nil {
		return fmt.Errorf("youtube %s: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode youtube %s: %w", endpoint, err)
	}
	return nil
}
