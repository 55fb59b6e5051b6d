package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const (
	maxUsernameLength = 50
	minPasswordLength = 8
)

// AuthHandler implements account registration and session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// SignUp handles POST /api/v1/auth/signup. The new account is signed in
// immediately.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.begin(w, r, &req, true) {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	switch {
	case email == "" || req.Password == "":
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	case !validEmail(email):
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	case len(req.Password) < minPasswordLength:
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	case utf8.RuneCountInString(username) > maxUsernameLength:
		respondError(ctx, w, http.StatusBadRequest, "username is too long")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique index on email is the source of truth for duplicates.
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("create user", "error", err, "email", email)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.issue(w, r, user, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.begin(w, r, &req, true) {
		return
	}
	ctx := r.Context()

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logging.FromContext(ctx).Error("login lookup", "email", email, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to sign in")
		return
	}
	// Unknown accounts and wrong passwords are indistinguishable to the caller.
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issue(w, r, user, http.StatusOK)
}

// Refresh handles POST /api/v1/auth/refresh. The presented refresh token is
// consumed; replaying it fails with 401.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.begin(w, r, &req, false) {
		return
	}
	ctx := r.Context()

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	switch {
	case errors.Is(err, auth.ErrRefreshTokenExpired), errors.Is(err, auth.ErrSessionNotFound):
		respondError(ctx, w, http.StatusUnauthorized, "unable to refresh session")
	case err != nil:
		logging.FromContext(ctx).Error("refresh session", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
	default:
		respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
	}
}

// Logout handles POST /api/v1/auth/logout by revoking the refresh token. It
// always succeeds so callers cannot probe which tokens are live.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.begin(w, r, &req, false) {
		return
	}
	ctx := r.Context()

	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		h.Sessions.Revoke(ctx, token)
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// begin runs the checks shared by every auth endpoint: method, rate limit,
// wiring and body decoding. It writes the response and returns false on failure.
// Token-only endpoints pass needUsers=false.
func (h AuthHandler) begin(w http.ResponseWriter, r *http.Request, body any, needUsers bool) bool {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return false
	}

	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return false
	}
	if h.Sessions == nil || (needUsers && h.Users == nil) {
		logging.FromContext(ctx).Error("auth handler misconfigured", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		logging.FromContext(ctx).Warn("invalid auth payload", "path", r.URL.Path, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h AuthHandler) issue(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	ctx := r.Context()
	tokens, err := h.Sessions.Issue(ctx, principalFor(user))
	if err != nil {
		logging.FromContext(ctx).Error("issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(ctx, w, status, authResponse{User: &user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   *models.User         `json:"user,omitempty"`
	Tokens models.SessionTokens `json:"tokens"`
}

func principalFor(user models.User) auth.Principal {
	return auth.Principal{UserID: user.ID, Email: user.Email, Username: user.Username}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// validEmail accepts a bare address only; display-name forms are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
