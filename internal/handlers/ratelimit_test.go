package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/auth"
)

type recordingLimiter struct {
	keys []string
}

func (l *recordingLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return true
}

func TestAllowRequestKeysByCaller(t *testing.T) {
	limiter := &recordingLimiter{}

	anonymous := httptest.NewRequest("GET", "/api/v1/search?q=cats", nil)
	anonymous.RemoteAddr = "203.0.113.9:5123"
	allowRequest(limiter, anonymous, "search")

	forwarded := httptest.NewRequest("GET", "/api/v1/search?q=cats", nil)
	forwarded.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.1")
	allowRequest(limiter, forwarded, "search")

	signedIn := withPrincipal(httptest.NewRequest("GET", "/api/v1/search?q=cats", nil), auth.Principal{UserID: "user-1"})
	allowRequest(limiter, signedIn, "search")

	want := []string{"search:ip:203.0.113.9", "search:ip:198.51.100.7", "search:user:user-1"}
	if len(limiter.keys) != len(want) {
		t.Fatalf("expected %v got %v", want, limiter.keys)
	}
	for i := range want {
		if limiter.keys[i] != want[i] {
			t.Fatalf("expected %v got %v", want, limiter.keys)
		}
	}
}

func TestClientIPFallsBackToRealIPHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "192.0.2.44")
	if got := clientIP(req); got != "192.0.2.44" {
		t.Fatalf("expected X-Real-IP got %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "unix-socket"
	if got := clientIP(req); got != "unix-socket" {
		t.Fatalf("expected raw remote addr got %q", got)
	}
}

func TestAllowRequestWithoutLimiter(t *testing.T) {
	if !allowRequest(nil, httptest.NewRequest("GET", "/", nil), "auth") {
		t.Fatal("expected requests to pass without a limiter")
	}
}
