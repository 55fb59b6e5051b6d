package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/search"
)

// SearchHandler serves the combined catalogue and short-form search.
type SearchHandler struct {
	Search  Searcher
	Limiter RateLimiter
}

// Handle implements GET /api/v1/search?q=&trending=&limit=.
func (h SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "search") {
		respondJSON(ctx, w, http.StatusTooManyRequests, search.ErrorEnvelope("too many requests"))
		return
	}

	if h.Search == nil {
		logging.FromContext(ctx).Error("search unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, search.ErrorEnvelope("Search failed"))
		return
	}

	q := r.URL.Query()
	env, err := h.Search.Search(ctx, search.Request{
		Query:    q.Get("q"),
		Limit:    queryInt(q, "limit"),
		Trending: q.Get("trending") == "true",
	})
	if err != nil {
		if errors.Is(err, search.ErrQueryRequired) {
			respondJSON(ctx, w, http.StatusBadRequest, search.ErrorEnvelope("Search query is required"))
			return
		}
		logging.FromContext(ctx).Error("search failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, search.ErrorEnvelope("Search failed"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, env)
}
