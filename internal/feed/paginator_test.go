package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type memoryStore struct {
	videos   []models.Video
	countErr error
	listErr  error

	order  repositories.VideoOrder
	offset int
	limit  int
}

func (m *memoryStore) CountVideos(context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.videos)), nil
}

func (m *memoryStore) ListVideos(_ context.Context, order repositories.VideoOrder, offset, limit int) ([]models.Video, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.order, m.offset, m.limit = order, offset, limit

	sorted := append([]models.Video(nil), m.videos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if order == repositories.OrderTrending {
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

func seedVideos(n int) []models.Video {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := make([]models.Video, n)
	for i := range videos {
		videos[i] = models.Video{ID: fmt.Sprintf("v%02d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return videos
}

func TestPaginatorRecentOrder(t *testing.T) {
	store := &memoryStore{videos: seedVideos(25)}

	page, err := NewPaginator(store).List(context.Background(), Request{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, repositories.OrderRecent, store.order)
	assert.Equal(t, 10, store.offset)
	require.Len(t, page.Videos, 10)
	assert.Equal(t, "v14", page.Videos[0].ID)
	assert.Equal(t, models.Pagination{CurrentPage: 2, TotalPages: 3, TotalVideos: 25, HasNext: true, HasPrev: true, Limit: 10}, page.Pagination)
}

func TestPaginatorTrendingOrder(t *testing.T) {
	videos := seedVideos(4)
	videos[0].Likes, videos[0].Views = 5, 1
	videos[1].Likes, videos[1].Views = 5, 9
	videos[2].Likes = 1
	store := &memoryStore{videos: videos}

	page, err := NewPaginator(store).List(context.Background(), Request{Page: 1, Limit: 10, Trending: true})
	require.NoError(t, err)

	assert.Equal(t, repositories.OrderTrending, store.order)
	ids := make([]string, 0, len(page.Videos))
	for _, v := range page.Videos {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"v01", "v00", "v02", "v03"}, ids)
}

func TestPaginatorHasNextMatchesTotal(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 30} {
		for _, limit := range []int{1, 3, 10} {
			for page := 1; page <= 5; page++ {
				store := &memoryStore{videos: seedVideos(total)}
				got, err := NewPaginator(store).List(context.Background(), Request{Page: page, Limit: limit})
				require.NoError(t, err)

				assert.LessOrEqual(t, len(got.Videos), limit)
				assert.Equal(t, page*limit < total, got.Pagination.HasNext,
					"total=%d limit=%d page=%d", total, limit, page)
				assert.Equal(t, page > 1, got.Pagination.HasPrev)
			}
		}
	}
}

func TestPaginatorPastEndReturnsEmptySlice(t *testing.T) {
	store := &memoryStore{videos: seedVideos(3)}
	page, err := NewPaginator(store).List(context.Background(), Request{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Videos)
	assert.Empty(t, page.Videos)
}

func TestRequestNormalize(t *testing.T) {
	cases := []struct {
		in   Request
		want Request
	}{
		{Request{}, Request{Page: 1, Limit: DefaultLimit}},
		{Request{Page: -2, Limit: -1}, Request{Page: 1, Limit: DefaultLimit}},
		{Request{Page: 3, Limit: 500}, Request{Page: 3, Limit: MaxLimit}},
		{Request{Page: 2, Limit: 5, Trending: true}, Request{Page: 2, Limit: 5, Trending: true}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Normalize())
	}
}

func TestPaginatorStoreErrors(t *testing.T) {
	_, err := NewPaginator(&memoryStore{countErr: errors.New("down")}).List(context.Background(), Request{})
	assert.Error(t, err)

	_, err = NewPaginator(&memoryStore{listErr: errors.New("down")}).List(context.Background(), Request{})
	assert.Error(t, err)
}
