package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type profileStoreStub struct {
	profiles map[string]models.Profile
}

func (s *profileStoreStub) Upsert(_ context.Context, profile models.Profile) error {
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *profileStoreStub) Find(_ context.Context, userID string) (models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, repositories.ErrNotFound
	}
	return p, nil
}

func TestProfileHandlerFallsBackToAccount(t *testing.T) {
	users := newInMemoryUserStore()
	users.users[ownerPrincipal.Email] = models.User{ID: ownerPrincipal.UserID, Email: ownerPrincipal.Email, Username: "owner-account"}
	handler := ProfileHandler{Profiles: &profileStoreStub{profiles: map[string]models.Profile{}}, Users: users}

	rec := httptest.NewRecorder()
	handler.Handle(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), ownerPrincipal))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Profile.Name != "owner-account" || resp.Profile.Email != ownerPrincipal.Email || resp.Profile.Bio != "" {
		t.Fatalf("unexpected fallback profile %+v", resp.Profile)
	}
}

func TestProfileHandlerUpdateThenGet(t *testing.T) {
	store := &profileStoreStub{profiles: map[string]models.Profile{}}
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	handler := ProfileHandler{Profiles: store, NowFunc: func() time.Time { return now }}

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/api/v1/profile", profileRequest{Name: "  Maya ", Bio: " films things "})
	handler.Handle(rec, withPrincipal(req, ownerPrincipal))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	stored := store.profiles[ownerPrincipal.UserID]
	if stored.Name != "Maya" || stored.Bio != "films things" || stored.Email != ownerPrincipal.Email || !stored.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected stored profile %+v", stored)
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), ownerPrincipal))

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Profile.Name != "Maya" {
		t.Fatalf("expected stored profile got %+v", resp.Profile)
	}
}

func TestProfileHandlerValidation(t *testing.T) {
	handler := ProfileHandler{Profiles: &profileStoreStub{profiles: map[string]models.Profile{}}}

	rec := httptest.NewRecorder()
	handler.Handle(rec, withPrincipal(jsonRequest(t, http.MethodPut, "/api/v1/profile", profileRequest{Name: " "}), ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
