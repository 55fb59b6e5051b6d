package youtube

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/clipstream/backend/internal/logging"
)

// TrendingQueries seed the trending aggregation, in priority order.
var TrendingQueries = []string{
	"viral shorts trending",
	"popular shorts today",
	"trending short videos",
	"viral short form content",
}

const (
	trendingPerQuery = 10
	trendingLimit    = 20
)

// Service exposes provider searches that never fail the caller: every error is
// logged and turned into an empty result.
type Service struct {
	source Source
}

// NewService wraps source.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// SearchShorts returns up to maxResults short-form videos matching query, or an
// empty slice when the provider is unconfigured or failing.
func (s *Service) SearchShorts(ctx context.Context, query string, maxResults int) []Short {
	logger := logging.FromContext(ctx)

	if s == nil || s.source == nil {
		logger.Warn("youtube search skipped: provider not configured")
		return []Short{}
	}

	shorts, err := s.source.Search(ctx, query, maxResults)
	switch {
	case err == nil:
		if shorts == nil {
			return []Short{}
		}
		return shorts
	case errors.Is(err, ErrNotConfigured):
		logger.Warn("youtube search skipped: api key not configured")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("youtube search abandoned", "query", query, "error", err)
	default:
		logger.Warn("youtube search failed", "query", query, "error", err)
	}
	return []Short{}
}

// TrendingShorts fans out over TrendingQueries, merges the results in query order,
// keeps the first occurrence of each id, sorts by view count descending and returns
// at most 20 items.
func (s *Service) TrendingShorts(ctx context.Context) []Short {
	batches := make([][]Short, len(TrendingQueries))

	var g errgroup.Group
	for i, query := range TrendingQueries {
		g.Go(func() error {
			batches[i] = s.SearchShorts(ctx, query, trendingPerQuery)
			return nil
		})
	}
	_ = g.Wait()

	var merged []Short
	for _, batch := range batches {
		merged = append(merged, batch...)
	}

	return rankTrending(merged, trendingLimit)
}

func rankTrending(shorts []Short, limit int) []Short {
	seen := make(map[string]struct{}, len(shorts))
	unique := make([]Short, 0, len(shorts))
	for _, short := range shorts {
		if _, dup := seen[short.VideoID]; dup {
			continue
		}
		seen[short.VideoID] = struct{}{}
		unique = append(unique, short)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].ViewCount > unique[j].ViewCount
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}
