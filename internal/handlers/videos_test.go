package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/feed"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type videoStoreStub struct {
	videos    map[string]models.Video
	createErr error
	findErr   error
	updates   int
	deletes   int
}

func newVideoStoreStub(videos ...models.Video) *videoStoreStub {
	s := &videoStoreStub{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *videoStoreStub) Create(_ context.Context, video models.Video) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.videos[video.ID] = video
	return nil
}

func (s *videoStoreStub) FindByID(_ context.Context, id string) (models.Video, error) {
	if s.findErr != nil {
		return models.Video{}, s.findErr
	}
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *videoStoreStub) Update(_ context.Context, id, ownerID string, update models.VideoUpdate) (models.Video, error) {
	v, ok := s.videos[id]
	if !ok || v.UserID != ownerID {
		return models.Video{}, repositories.ErrNotFound
	}
	s.updates++
	if update.Title != nil {
		v.Title = *update.Title
	}
	if update.Description != nil {
		v.Description = *update.Description
	}
	if update.Controls != nil {
		v.Controls = *update.Controls
	}
	if update.Transformation != nil {
		v.Transformation = *update.Transformation
	}
	v.UpdatedAt = update.UpdatedAt
	s.videos[id] = v
	return v, nil
}

func (s *videoStoreStub) Delete(_ context.Context, id, ownerID string) error {
	v, ok := s.videos[id]
	if !ok || v.UserID != ownerID {
		return repositories.ErrNotFound
	}
	s.deletes++
	delete(s.videos, id)
	return nil
}

func (s *videoStoreStub) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range s.videos {
		if v.UserID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

type feedStub struct {
	req  feed.Request
	page feed.Page
	err  error
}

func (f *feedStub) List(_ context.Context, req feed.Request) (feed.Page, error) {
	f.req = req
	return f.page, f.err
}

var (
	ownerPrincipal    = auth.Principal{UserID: "7b0e8f1c-4a43-4a43-9d8e-0c7a2f6c1a01", Email: "owner@example.com", Username: "owner"}
	strangerPrincipal = auth.Principal{UserID: "7b0e8f1c-4a43-4a43-9d8e-0c7a2f6c1a02", Email: "stranger@example.com"}
)

func newVideoMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return mux
}

func withPrincipal(req *http.Request, principal auth.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), principal))
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return httptest.NewRequest(method, path, bytes.NewReader(body))
}

func sampleVideo() models.Video {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Video{
		ID:             uuid.NewString(),
		Title:          "Sunset",
		Description:    "Golden hour",
		VideoURL:       "https://cdn.example.com/v.mp4",
		ThumbnailURL:   "https://cdn.example.com/t.jpg",
		UserID:         ownerPrincipal.UserID,
		Username:       ownerPrincipal.Username,
		LikedBy:        []string{},
		Comments:       []models.Comment{},
		Controls:       true,
		Transformation: models.DefaultTransformation(),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestVideoHandlerCreate(t *testing.T) {
	store := newVideoStoreStub()
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	handler := VideoHandler{Videos: store, NowFunc: func() time.Time { return now }}

	payload := map[string]any{
		"title":        "  First clip ",
		"description":  "desc",
		"videoUrl":     "https://cdn.example.com/a.mp4",
		"thumbnailUrl": "https://cdn.example.com/a.jpg",
	}

	rec := httptest.NewRecorder()
	handler.Collection(rec, withPrincipal(jsonRequest(t, http.MethodPost, "/api/v1/videos", payload), ownerPrincipal))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Video
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Title != "First clip" || created.UserID != ownerPrincipal.UserID || created.Username != "owner" {
		t.Fatalf("unexpected video %+v", created)
	}
	if !created.Controls {
		t.Fatal("expected controls to default to true")
	}
	if created.Transformation != models.DefaultTransformation() {
		t.Fatalf("expected default transformation got %+v", created.Transformation)
	}
	if created.Likes != 0 || len(created.LikedBy) != 0 || !created.CreatedAt.Equal(now) {
		t.Fatalf("unexpected initial state %+v", created)
	}

	stored, err := store.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected video to be stored: %v", err)
	}
	if stored.Title != created.Title || stored.VideoURL != created.VideoURL {
		t.Fatalf("stored video differs: %+v", stored)
	}
}

func TestVideoHandlerCreateValidation(t *testing.T) {
	handler := VideoHandler{Videos: newVideoStoreStub()}

	rec := httptest.NewRecorder()
	handler.Collection(rec, jsonRequest(t, http.MethodPost, "/api/v1/videos", map[string]string{"title": "x"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Collection(rec, withPrincipal(jsonRequest(t, http.MethodPost, "/api/v1/videos", map[string]string{"title": "x"}), ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields got %d", rec.Code)
	}

	bad := map[string]string{"title": "x", "description": "y", "videoUrl": "ftp://nope", "thumbnailUrl": "https://cdn/t.jpg"}
	rec = httptest.NewRecorder()
	handler.Collection(rec, withPrincipal(jsonRequest(t, http.MethodPost, "/api/v1/videos", bad), ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid url got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Collection(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/videos", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}

func TestVideoHandlerFeed(t *testing.T) {
	stub := &feedStub{page: feed.Page{Videos: []models.Video{sampleVideo()}, Pagination: models.Pagination{CurrentPage: 2, Limit: 5}}}
	mux := newVideoMux(Dependencies{Feed: stub})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=2&limit=5&trending=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.req != (feed.Request{Page: 2, Limit: 5, Trending: true}) {
		t.Fatalf("unexpected feed request %+v", stub.req)
	}

	var page feed.Page
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Videos) != 1 || page.Pagination.CurrentPage != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	stub.err = errors.New("db down")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=abc", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if stub.req.Page != 0 {
		t.Fatalf("expected unparsable page to be passed as zero got %d", stub.req.Page)
	}
}

func TestVideoHandlerGet(t *testing.T) {
	video := sampleVideo()
	mux := newVideoMux(Dependencies{Videos: newVideoStoreStub(video)})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var got models.Video
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != video.ID || got.Title != video.Title || !got.CreatedAt.Equal(video.CreatedAt) {
		t.Fatalf("unexpected video %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestVideoHandlerUpdateOwnership(t *testing.T) {
	video := sampleVideo()
	store := newVideoStoreStub(video)
	mux := newVideoMux(Dependencies{Videos: store})

	payload := map[string]any{"title": "Renamed", "controls": false}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(jsonRequest(t, http.MethodPut, "/api/v1/videos/"+video.ID, payload), strangerPrincipal))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if store.updates != 0 || store.videos[video.ID].Title != "Sunset" {
		t.Fatal("expected record to be unchanged after forbidden update")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(jsonRequest(t, http.MethodPut, "/api/v1/videos/"+video.ID, payload), ownerPrincipal))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := store.videos[video.ID]; got.Title != "Renamed" || got.Controls {
		t.Fatalf("expected update to apply got %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(jsonRequest(t, http.MethodPut, "/api/v1/videos/"+video.ID, map[string]string{"title": "  "}), ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(jsonRequest(t, http.MethodPut, "/api/v1/videos/"+video.ID, map[string]string{"description": "   "}), ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank description got %d", rec.Code)
	}
	if got := store.videos[video.ID].Description; got != video.Description {
		t.Fatalf("expected description to be kept got %q", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(t, http.MethodPut, "/api/v1/videos/"+video.ID, payload))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestVideoHandlerDeleteOwnership(t *testing.T) {
	video := sampleVideo()
	store := newVideoStoreStub(video)
	mux := newVideoMux(Dependencies{Videos: store})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil), strangerPrincipal))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if _, ok := store.videos[video.ID]; !ok {
		t.Fatal("expected video to survive forbidden delete")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil), ownerPrincipal))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil), ownerPrincipal))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", rec.Code)
	}
}

func TestVideoHandlerByOwner(t *testing.T) {
	video := sampleVideo()
	users := newInMemoryUserStore()
	users.users[ownerPrincipal.Email] = models.User{ID: ownerPrincipal.UserID, Email: ownerPrincipal.Email}
	mux := newVideoMux(Dependencies{Videos: newVideoStoreStub(video), Users: users})

	for _, path := range []string{
		"/api/v1/users/videos?user=" + ownerPrincipal.UserID,
		"/api/v1/users/videos?email=Owner@Example.com",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
		var videos []models.Video
		if err := json.NewDecoder(rec.Body).Decode(&videos); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(videos) != 1 || videos[0].ID != video.ID {
			t.Fatalf("%s: unexpected videos %+v", path, videos)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/videos?email=ghost@example.com", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty list got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/videos", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
