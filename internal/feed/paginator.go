// Package feed pages through the video catalogue by recency or by a trending order.
//
// Pagination is offset based. It takes no snapshot: a video published between two
// page requests shifts every later offset by one, so a client walking the feed can
// see an item twice or skip one. Clients that need a stable walk should de-duplicate
// by id.
package feed

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const (
	// DefaultLimit is the page size used when none is requested.
	DefaultLimit = 10
	// MaxLimit bounds the page size.
	MaxLimit = 100
)

// Store is the subset of the video repository the paginator needs.
type Store interface {
	ListVideos(ctx context.Context, order repositories.VideoOrder, offset, limit int) ([]models.Video, error)
	CountVideos(ctx context.Context) (int64, error)
}

// Request selects one page of the feed.
type Request struct {
	Page     int
	Limit    int
	Trending bool
}

// Normalize applies defaults: page below 1 becomes 1, a non-positive limit becomes
// DefaultLimit and limits above MaxLimit are clamped.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	switch {
	case r.Limit < 1:
		r.Limit = DefaultLimit
	case r.Limit > MaxLimit:
		r.Limit = MaxLimit
	}
	return r
}

// Page is one window of the feed.
type Page struct {
	Videos     []models.Video    `json:"videos"`
	Pagination models.Pagination `json:"pagination"`
}

// Paginator serves feed pages from a Store.
type Paginator struct {
	store Store
}

// NewPaginator constructs a Paginator.
func NewPaginator(store Store) *Paginator {
	return &Paginator{store: store}
}

// List returns the requested page. Trending orders by likes, then views, then
// recency; otherwise by recency alone.
func (p *Paginator) List(ctx context.Context, req Request) (Page, error) {
	req = req.Normalize()

	order := repositories.OrderRecent
	if req.Trending {
		order = repositories.OrderTrending
	}

	total, err := p.store.CountVideos(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count feed: %w", err)
	}

	videos, err := p.store.ListVideos(ctx, order, (req.Page-1)*req.Limit, req.Limit)
	if err != nil {
		return Page{}, fmt.Errorf("list feed: %w", err)
	}
	if videos == nil {
		videos = []models.Video{}
	}

	return Page{Videos: videos, Pagination: Paginate(req.Page, req.Limit, total)}, nil
}

// Paginate computes the pagination block for page and limit over total items.
func Paginate(page, limit int, total int64) models.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalVideos: total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		Limit:       limit,
	}
}
