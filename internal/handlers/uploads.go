package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/storage"
)

// UploadHandler authorizes and accepts video and thumbnail media uploads.
type UploadHandler struct {
	Storage MediaStorage
	MaxSize int64
}

// Authorize handles GET /api/v1/uploads/auth?name=&contentType= and returns a presigned PUT.
func (h UploadHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Storage == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	contentType := strings.TrimSpace(q.Get("contentType"))
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}
	if err := storage.CheckContentType(contentType); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "unsupported content type")
		return
	}

	upload, err := h.Storage.PresignUpload(ctx, storage.ObjectKey(principal.UserID, name), contentType)
	if err != nil {
		logging.FromContext(ctx).Error("presign upload", "error", err, "userId", principal.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Upload authentication failed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, upload)
}

// Upload handles POST /api/v1/uploads?name= with the raw media as the request body.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Storage == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if err := storage.CheckContentType(contentType); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "unsupported content type")
		return
	}

	if h.MaxSize > 0 {
		if r.ContentLength > h.MaxSize {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxSize)
	}

	location, err := h.Storage.Save(ctx, storage.ObjectKey(principal.UserID, name), contentType, r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		logging.FromContext(ctx).Error("store upload", "error", err, "userId", principal.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"url": location})
}
