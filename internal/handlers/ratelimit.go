package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
)

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest charges one request against scope. Signed-in callers are keyed by
// user id so a shared NAT does not throttle them together; everyone else by IP.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + callerKey(r))
}

func callerKey(r *http.Request) string {
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok && principal.UserID != "" {
		return "user:" + principal.UserID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
