package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type memoryVideo struct {
	likedBy  map[string]bool
	likes    int64
	comments []models.Comment
}

type memoryStore struct {
	mu     sync.Mutex
	videos map[string]*memoryVideo
	err    error
}

func newMemoryStore(ids ...string) *memoryStore {
	s := &memoryStore{videos: make(map[string]*memoryVideo)}
	for _, id := range ids {
		s.videos[id] = &memoryVideo{likedBy: make(map[string]bool)}
	}
	return s
}

func (s *memoryStore) ToggleLike(_ context.Context, videoID, userID string, _ time.Time) (repositories.LikeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return repositories.LikeState{}, s.err
	}
	v, ok := s.videos[videoID]
	if !ok {
		return repositories.LikeState{}, repositories.ErrNotFound
	}
	if v.likedBy[userID] {
		delete(v.likedBy, userID)
		if v.likes > 0 {
			v.likes--
		}
	} else {
		v.likedBy[userID] = true
		v.likes++
	}
	return repositories.LikeState{Liked: v.likedBy[userID], Likes: v.likes}, nil
}

func (s *memoryStore) AppendComment(_ context.Context, videoID string, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	v, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	v.comments = append(v.comments, comment)
	return nil
}

func (s *memoryStore) ListComments(_ context.Context, videoID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return v.comments, nil
}

func TestToggleLikeAlternates(t *testing.T) {
	id := uuid.NewString()
	store := newMemoryStore(id)
	store.videos[id].likes = 3
	mutator := NewMutator(store)

	liked, err := mutator.ToggleLike(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Likes: 4}, liked)

	unliked, err := mutator.ToggleLike(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Likes: 3}, unliked)
}

func TestToggleLikeConcurrentUsers(t *testing.T) {
	id := uuid.NewString()
	store := newMemoryStore(id)
	mutator := NewMutator(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mutator.ToggleLike(context.Background(), id, uuid.NewString())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), store.videos[id].likes)
	assert.Len(t, store.videos[id].likedBy, 20)
}

func TestToggleLikeErrors(t *testing.T) {
	mutator := NewMutator(newMemoryStore())

	_, err := mutator.ToggleLike(context.Background(), "not-a-uuid", "user-1")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = mutator.ToggleLike(context.Background(), uuid.NewString(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mutator.ToggleLike(context.Background(), uuid.NewString(), " ")
	assert.ErrorIs(t, err, ErrAnonymous)

	failing := newMemoryStore()
	failing.err = errors.New("deadlock")
	_, err = NewMutator(failing).ToggleLike(context.Background(), uuid.NewString(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAddComment(t *testing.T) {
	id := uuid.NewString()
	store := newMemoryStore(id)
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mutator := NewMutator(store)
	mutator.NowFunc = func() time.Time { return now }
	mutator.NewID = func() string { return "comment-1" }

	comment, err := mutator.AddComment(context.Background(), id, Author{UserID: "user-1", Username: "maya"}, "  great shot  ")
	require.NoError(t, err)

	assert.Equal(t, models.Comment{ID: "comment-1", Text: "great shot", Username: "maya", UserID: "user-1", CreatedAt: now}, comment)

	comments, err := mutator.ListComments(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []models.Comment{comment}, comments)
}

func TestAddCommentKeepsInsertionOrderAndUniqueIDs(t *testing.T) {
	id := uuid.NewString()
	store := newMemoryStore(id)
	frozen := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	mutator := NewMutator(store)
	mutator.NowFunc = func() time.Time { return frozen }

	for _, text := range []string{"first", "second", "third"} {
		_, err := mutator.AddComment(context.Background(), id, Author{UserID: "u"}, text)
		require.NoError(t, err)
	}

	comments, err := mutator.ListComments(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "third", comments[2].Text)
	assert.Equal(t, "Anonymous", comments[0].Username)

	ids := map[string]bool{}
	for _, c := range comments {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 3, "comment ids must be unique even with identical timestamps")
}

func TestAddCommentErrors(t *testing.T) {
	id := uuid.NewString()
	mutator := NewMutator(newMemoryStore(id))

	_, err := mutator.AddComment(context.Background(), id, Author{UserID: "u"}, " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = mutator.AddComment(context.Background(), "bad", Author{UserID: "u"}, "hi")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = mutator.AddComment(context.Background(), uuid.NewString(), Author{UserID: "u"}, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mutator.AddComment(context.Background(), id, Author{}, "hi")
	assert.ErrorIs(t, err, ErrAnonymous)
}

func TestListCommentsEmpty(t *testing.T) {
	id := uuid.NewString()
	mutator := NewMutator(newMemoryStore(id))

	comments, err := mutator.ListComments(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)

	_, err = mutator.ListComments(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
