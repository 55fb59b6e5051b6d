// Package search blends the local video catalogue with short-form results from
// the external provider into a single response envelope.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/youtube"
)

// Search type tags reported in the envelope.
const (
	TypeTrending = "trending"
	TypeCombined = "combined"
	TypeError    = "error"
)

const (
	// DefaultLimit is the external page size used when the caller supplies none.
	DefaultLimit = 20
	// MaxLimit bounds the external page size.
	MaxLimit = 50
	// LocalLimit caps the number of local matches considered.
	LocalLimit = 50
)

var (
	// ErrQueryRequired is returned for a non-trending search without a query.
	ErrQueryRequired = errors.New("search query required")
	// ErrUnavailable indicates the aggregator was built without its collaborators.
	ErrUnavailable = errors.New("search unavailable")
)

// LocalStore matches videos in the catalogue.
type LocalStore interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]models.Video, error)
}

// ShortsProvider returns external short-form results. Implementations degrade
// failures to empty results themselves.
type ShortsProvider interface {
	SearchShorts(ctx context.Context, query string, maxResults int) []youtube.Short
	TrendingShorts(ctx context.Context) []youtube.Short
}

// Request is one search invocation.
type Request struct {
	Query    string
	Limit    int
	Trending bool
}

// Envelope is the combined search response. Slices are never nil.
type Envelope struct {
	Shorts       []youtube.Short `json:"shorts"`
	Videos       []LocalVideo    `json:"videos"`
	Users        []string        `json:"users"`
	Hashtags     []string        `json:"hashtags"`
	TotalResults int             `json:"totalResults"`
	SearchType   string          `json:"searchType"`
	Error        string          `json:"error,omitempty"`
}

// ErrorEnvelope is the zeroed envelope returned when a search fails.
func ErrorEnvelope(message string) Envelope {
	env := emptyEnvelope(TypeError)
	env.Error = message
	return env
}

func emptyEnvelope(searchType string) Envelope {
	return Envelope{
		Shorts:     []youtube.Short{},
		Videos:     []LocalVideo{},
		Users:      []string{},
		Hashtags:   []string{},
		SearchType: searchType,
	}
}

// Aggregator runs the local and external searches.
type Aggregator struct {
	Local    LocalStore
	External ShortsProvider
}

// NewAggregator constructs an Aggregator.
func NewAggregator(local LocalStore, external ShortsProvider) *Aggregator {
	return &Aggregator{Local: local, External: external}
}

// Search builds the envelope for req. A trending request ignores the query and
// returns only trending shorts. Otherwise the local and external branches run
// concurrently and a failing branch contributes nothing without affecting the other.
func (a *Aggregator) Search(ctx context.Context, req Request) (Envelope, error) {
	if a == nil || a.Local == nil || a.External == nil {
		return Envelope{}, ErrUnavailable
	}

	if req.Trending {
		env := emptyEnvelope(TypeTrending)
		runBranch(ctx, "search.trending", func(ctx context.Context) error {
			env.Shorts = nonNilShorts(a.External.TrendingShorts(ctx))
			return nil
		})
		env.TotalResults = len(env.Shorts)
		return env, nil
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Envelope{}, ErrQueryRequired
	}
	limit := NormalizeLimit(req.Limit)

	var (
		shorts []youtube.Short
		videos []LocalVideo
	)

	var g errgroup.Group
	g.Go(func() error {
		runBranch(ctx, "search.external", func(ctx context.Context) error {
			shorts = a.External.SearchShorts(ctx, query, limit)
			return nil
		})
		return nil
	})
	g.Go(func() error {
		runBranch(ctx, "search.local", func(ctx context.Context) error {
			records, err := a.Local.SearchVideos(ctx, query, LocalLimit)
			if err != nil {
				return err
			}
			videos = decodeAll(ctx, records)
			return nil
		})
		return nil
	})
	_ = g.Wait()

	env := emptyEnvelope(TypeCombined)
	env.Shorts = nonNilShorts(shorts)
	if videos != nil {
		env.Videos = videos
	}
	env.Users = distinctUsernames(env.Videos)
	env.Hashtags = Hashtags(query)
	env.TotalResults = len(env.Shorts) + len(env.Videos)
	return env, nil
}

// runBranch executes fn inside a span. Errors and panics are logged and swallowed so
// they stay confined to the branch.
func runBranch(ctx context.Context, name string, fn func(context.Context) error) {
	ctx, span := logging.StartSpan(ctx, name)
	defer span.End()

	logger := logging.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("search branch panicked", "panic", fmt.Sprint(rec))
			span.Fail(fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := fn(ctx); err != nil {
		span.Fail(err)
	}
}

// NormalizeLimit applies the default and clamps to [1, MaxLimit].
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Hashtags derives the suggested hashtags for a query.
func Hashtags(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	return []string{
		"#" + q,
		"#" + q + "shorts",
		"#shorts" + q,
		"#shorts",
		"#viral",
		"#trending" + q,
	}
}

func distinctUsernames(videos []LocalVideo) []string {
	users := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.Username]; ok {
			continue
		}
		seen[v.Username] = struct{}{}
		users = append(users, v.Username)
	}
	return users
}

func nonNilShorts(shorts []youtube.Short) []youtube.Short {
	if shorts == nil {
		return []youtube.Short{}
	}
	return shorts
}
