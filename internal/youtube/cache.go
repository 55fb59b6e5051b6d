package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipstream/backend/internal/logging"
)

// ErrCacheMiss is returned by a RemoteCache when the key is absent.
var ErrCacheMiss = errors.New("youtube: cache miss")

// RemoteCache is a shared cache tier consulted after the in-process map.
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cacheEntry struct {
	shorts  []Short
	expires time.Time
}

// CachingSource wraps another Source with a TTL cache. Lookups check the in-process
// map first, then the optional remote tier. Only successful searches are cached.
type CachingSource struct {
	base   Source
	remote RemoteCache
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingSource returns a Source that caches results for ttl. remote may be nil.
func NewCachingSource(base Source, remote RemoteCache, ttl time.Duration) *CachingSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingSource{
		base:   base,
		remote: remote,
		ttl:    ttl,
		now:    time.Now,
		items:  make(map[string]cacheEntry),
	}
}

// Search returns cached results when available, otherwise it delegates to the
// underlying source and stores the result.
func (c *CachingSource) Search(ctx context.Context, query string, maxResults int) ([]Short, error) {
	if c == nil || c.base == nil {
		return nil, ErrNotConfigured
	}

	key := cacheKey(query, maxResults)
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.shorts, nil
	}

	logger := logging.FromContext(ctx)

	if c.remote != nil {
		raw, err := c.remote.Get(ctx, key)
		switch {
		case err == nil:
			var shorts []Short
			if err := json.Unmarshal(raw, &shorts); err == nil {
				c.store(key, shorts, now)
				return shorts, nil
			}
			logger.Warn("discarding undecodable cached search", "key", key)
		case !errors.Is(err, ErrCacheMiss):
			logger.Warn("remote search cache unavailable", "error", err)
		}
	}

	shorts, err := c.base.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	c.store(key, shorts, now)

	if c.remote != nil {
		if raw, err := json.Marshal(shorts); err == nil {
			if err := c.remote.Set(ctx, key, raw, c.ttl); err != nil {
				logger.Warn("remote search cache write failed", "error", err)
			}
		}
	}

	return shorts, nil
}

func (c *CachingSource) store(key string, shorts []Short, now time.Time) {
	c.mu.Lock()
	c.items[key] = cacheEntry{shorts: shorts, expires: now.Add(c.ttl)}
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

func cacheKey(query string, maxResults int) string {
	return "clipstream:shorts:" + strconv.Itoa(maxResults) + ":" + strings.ToLower(strings.TrimSpace(query))
}

// RedisCache implements RemoteCache on a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance named by rawURL (redis://...).
func NewRedisCache(rawURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Ping verifies the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get implements RemoteCache.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Set implements RemoteCache.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
