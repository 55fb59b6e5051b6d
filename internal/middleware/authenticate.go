package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
)

// Authenticator verifies bearer access tokens.
type Authenticator interface {
	Authenticate(accessToken string) (auth.Principal, error)
}

// Authenticate attaches the caller's principal to the request context when a
// bearer token is present. Requests without a token pass through anonymously;
// requests with an invalid or expired token are rejected with 401.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || authenticator == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authenticator.Authenticate(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rejected access token", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}

			ctx := logging.WithUser(auth.WithPrincipal(r.Context(), principal), principal.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
