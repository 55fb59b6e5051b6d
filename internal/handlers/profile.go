package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const maxBioLength = 500

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	Profiles ProfileStore
	Users    UserStore
	NowFunc  func() time.Time
}

// Handle implements GET and PUT /api/v1/profile.
func (h ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// get returns the stored profile, or one derived from the account for first-time users.
func (h ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Profiles == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	profile, err := h.Profiles.Find(ctx, principal.UserID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		profile = models.Profile{Name: principal.Username, Email: principal.Email}
		if h.Users != nil {
			if user, err := h.Users.FindByID(ctx, principal.UserID); err == nil {
				profile.Name, profile.Email = user.Username, user.Email
			} else if !errors.Is(err, repositories.ErrNotFound) {
				logger.Warn("profile fallback lookup failed", "error", err, "userId", principal.UserID)
			}
		}
	default:
		logger.Error("find profile", "error", err, "userId", principal.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{Profile: profile})
}

func (h ProfileHandler) put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.Profiles == nil {
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "Name is required")
		return
	}
	bio := strings.TrimSpace(req.Bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		respondError(ctx, w, http.StatusBadRequest, "Bio is too long")
		return
	}
	image := strings.TrimSpace(req.Image)
	if image != "" && !validMediaURL(image) {
		respondError(ctx, w, http.StatusBadRequest, "invalid image url")
		return
	}

	profile := models.Profile{
		UserID:    principal.UserID,
		Name:      name,
		Email:     principal.Email,
		Bio:       bio,
		Image:     image,
		UpdatedAt: h.now(),
	}

	if err := h.Profiles.Upsert(ctx, profile); err != nil {
		logging.FromContext(ctx).Error("upsert profile", "error", err, "userId", principal.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		Success: true,
		Profile: profile,
		Message: "Profile updated successfully",
	})
}

type profileRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Image string `json:"image"`
}

type profileResponse struct {
	Success bool           `json:"success,omitempty"`
	Profile models.Profile `json:"profile"`
	Message string         `json:"message,omitempty"`
}

func (h ProfileHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
