package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/clipstream/backend/internal/config"
)

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per caller key. Buckets idle for
// longer than ttl are swept, at most once per ttl.
type KeyedRateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewKeyedRateLimiter allows requests events per window for each key, plus burst.
// Non-positive arguments fall back to 1 request per second, a burst of 1 and a
// five minute ttl.
func NewKeyedRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) *KeyedRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &KeyedRateLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// NewRateLimiterFromConfig builds the limiter for one route group. Idle callers
// are forgotten after ten windows.
func NewRateLimiterFromConfig(cfg config.RateLimitConfig) *KeyedRateLimiter {
	return NewKeyedRateLimiter(cfg.Requests, cfg.Window, cfg.Burst, 10*cfg.Window)
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *KeyedRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweepLocked(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Tracked returns the number of keys currently holding a bucket.
func (l *KeyedRateLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedRateLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// WithNowFunc overrides the clock. Tests only.
func (l *KeyedRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

var _ RateLimiter = (*KeyedRateLimiter)(nil)
