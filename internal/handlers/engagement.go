package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/logging"
)

// EngagementHandler serves likes and comments on videos.
type EngagementHandler struct {
	Engagement Engagement
}

// Like handles POST /api/v1/videos/like with body {"videoId": "..."}.
func (h EngagementHandler) Like(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Engagement == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update like")
		return
	}

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Engagement.ToggleLike(ctx, strings.TrimSpace(req.VideoID), principal.UserID)
	if err != nil {
		h.respondEngagementError(w, r, err, "Failed to update like")
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Comments handles /api/v1/videos/comment: POST appends a comment, GET lists them.
func (h EngagementHandler) Comments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.addComment(w, r)
	case http.MethodGet:
		h.listComments(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h EngagementHandler) addComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Engagement == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	author := engagement.Author{UserID: principal.UserID, Username: principal.DisplayName()}
	comment, err := h.Engagement.AddComment(ctx, strings.TrimSpace(req.VideoID), author, req.Text)
	if err != nil {
		h.respondEngagementError(w, r, err, "Failed to add comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

func (h EngagementHandler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Engagement == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}

	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	comments, err := h.Engagement.ListComments(ctx, videoID)
	if err != nil {
		h.respondEngagementError(w, r, err, "Failed to fetch comments")
		return
	}

	respondJSON(ctx, w, http.StatusOK, comments)
}

func (h EngagementHandler) respondEngagementError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, engagement.ErrInvalidID):
		respondError(ctx, w, http.StatusBadRequest, "Invalid video ID")
	case errors.Is(err, engagement.ErrEmptyComment):
		respondError(ctx, w, http.StatusBadRequest, "Comment text is required")
	case errors.Is(err, engagement.ErrAnonymous):
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, engagement.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "Video not found")
	default:
		logging.FromContext(ctx).Error("engagement failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, fallback)
	}
}

type likeRequest struct {
	VideoID string `json:"videoId"`
}

type commentRequest struct {
	VideoID string `json:"videoId"`
	Text    string `json:"text"`
}
