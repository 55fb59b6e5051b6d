package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/feed"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler serves publishing, editing and browsing of videos.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Feed    FeedLister
	NowFunc func() time.Time
}

// Collection handles /api/v1/videos: GET pages the feed, POST publishes a video.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// Item handles /api/v1/videos/{id}.
func (h VideoHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Feed == nil {
		logging.FromContext(ctx).Error("feed unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}

	q := r.URL.Query()
	req := feed.Request{
		Page:     queryInt(q, "page"),
		Limit:    queryInt(q, "limit"),
		Trending: q.Get("trending") == "true",
	}

	page, err := h.Feed.List(ctx, req)
	if err != nil {
		logging.FromContext(ctx).Error("list feed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, page)
}

func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Failed to save video")
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	req.ThumbnailURL = strings.TrimSpace(req.ThumbnailURL)
	if req.Title == "" || req.Description == "" || req.VideoURL == "" || req.ThumbnailURL == "" {
		respondError(ctx, w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validMediaURL(req.VideoURL) || !validMediaURL(req.ThumbnailURL) {
		respondError(ctx, w, http.StatusBadRequest, "invalid media url")
		return
	}

	controls := true
	if req.Controls != nil {
		controls = *req.Controls
	}

	now := h.now()
	video := models.Video{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		ThumbnailURL:   req.ThumbnailURL,
		UserID:         principal.UserID,
		Username:       principal.DisplayName(),
		LikedBy:        []string{},
		Comments:       []models.Comment{},
		Controls:       controls,
		Transformation: models.DefaultTransformation(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video", "error", err, "userId", principal.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to save video")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := videoIDFromPath(w, r)
	if !ok {
		return
	}
	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch video")
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logging.FromContext(ctx).Error("find video", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

func (h VideoHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := videoIDFromPath(w, r)
	if !ok {
		return
	}
	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update video")
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	update, msg := req.toUpdate()
	if msg != "" {
		respondError(ctx, w, http.StatusBadRequest, msg)
		return
	}
	update.UpdatedAt = h.now()

	if !h.authorizeOwner(w, r, id, principal.UserID, "update") {
		return
	}

	video, err := h.Videos.Update(ctx, id, principal.UserID, update)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("update video", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := videoIDFromPath(w, r)
	if !ok {
		return
	}
	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	if !h.authorizeOwner(w, r, id, principal.UserID, "delete") {
		return
	}

	if err := h.Videos.Delete(ctx, id, principal.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logging.FromContext(ctx).Error("delete video", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

// authorizeOwner loads the video and writes 404/403 unless userID owns it.
func (h VideoHandler) authorizeOwner(w http.ResponseWriter, r *http.Request, id, userID, action string) bool {
	ctx := r.Context()

	existing, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return false
		}
		logging.FromContext(ctx).Error("load video for "+action, "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to "+action+" video")
		return false
	}

	if existing.UserID != userID {
		respondError(ctx, w, http.StatusForbidden, "Forbidden: You can only "+action+" your own videos")
		return false
	}
	return true
}

// ByOwner handles GET /api/v1/users/videos?user={id} or ?email={email}.
func (h VideoHandler) ByOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch user videos")
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("user"))
	if ownerID == "" {
		email := normalizeEmail(r.URL.Query().Get("email"))
		if email == "" {
			respondError(ctx, w, http.StatusBadRequest, "user or email parameter required")
			return
		}
		if h.Users == nil {
			respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch user videos")
			return
		}
		user, err := h.Users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondJSON(ctx, w, http.StatusOK, []models.Video{})
				return
			}
			logger.Error("find video owner", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch user videos")
			return
		}
		ownerID = user.ID
	}

	if _, err := uuid.Parse(ownerID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid user id")
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("list videos by owner", "error", err, "userId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch user videos")
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, videos)
}

type createVideoRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Controls     *bool  `json:"controls"`
}

type updateVideoRequest struct {
	Title          *string                `json:"title"`
	Description    *string                `json:"description"`
	VideoURL       *string                `json:"videoUrl"`
	ThumbnailURL   *string                `json:"thumbnailUrl"`
	Controls       *bool                  `json:"controls"`
	Transformation *models.Transformation `json:"transformation"`
}

// toUpdate trims and validates the supplied fields, returning a client error message on failure.
func (req updateVideoRequest) toUpdate() (models.VideoUpdate, string) {
	update := models.VideoUpdate{Controls: req.Controls}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return models.VideoUpdate{}, "title cannot be empty"
		}
		update.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return models.VideoUpdate{}, "description cannot be empty"
		}
		update.Description = &description
	}
	for _, field := range []struct {
		in  *string
		out **string
	}{{req.VideoURL, &update.VideoURL}, {req.ThumbnailURL, &update.ThumbnailURL}} {
		if field.in == nil {
			continue
		}
		value := strings.TrimSpace(*field.in)
		if !validMediaURL(value) {
			return models.VideoUpdate{}, "invalid media url"
		}
		*field.out = &value
	}
	if t := req.Transformation; t != nil {
		if t.Width <= 0 || t.Height <= 0 {
			return models.VideoUpdate{}, "transformation dimensions must be positive"
		}
		if strings.TrimSpace(t.Crop) == "" {
			t.Crop = models.DefaultVideoCrop
		}
		update.Transformation = t
	}

	return update, ""
}

func videoIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if _, err := uuid.Parse(id); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "Invalid video ID")
		return "", false
	}
	return id, true
}

func validMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func queryInt(q url.Values, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil {
		return 0
	}
	return n
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
