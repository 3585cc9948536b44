// Package cache provides a Redis-backed, fail-open cache for URL mappings.
//
// Every operation degrades to a no-op or an absent result when Redis is
// unreachable: the cache is an optimization, never a correctness dependency,
// and no cache failure may surface to a caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitryglazkov/shortly/internal/models"
)

const (
	urlKeyPrefix = "url:"

	// DefaultURLTTL is the cache lifetime for mappings without an expiration.
	DefaultURLTTL = time.Hour
)

func urlKey(shortCode string) string {
	return urlKeyPrefix + shortCode
}

// TTLFor derives the cache lifetime for a mapping: the remaining time until
// its expiration when one is set, DefaultURLTTL otherwise. A non-positive
// result means the mapping must not be cached.
func TTLFor(url *models.URL, now time.Time) time.Duration {
	if url.ExpiresAt == nil {
		return DefaultURLTTL
	}

	return url.ExpiresAt.Sub(now)
}

// URLCache caches serialized URL mappings in Redis under "url:{shortCode}"
// keys. The underlying client is created lazily on first use and owned by
// the struct; there is one connection handle per process.
type URLCache struct {
	mu     sync.Mutex
	client *redis.Client
	opts   *redis.Options
	logger *slog.Logger
}

func New(opts *redis.Options, logger *slog.Logger) *URLCache {
	return &URLCache{
		opts:   opts,
		logger: logger,
	}
}

// acquire returns the live client, creating it on first use. go-redis
// manages the actual connection pool, so creation never blocks on I/O.
func (c *URLCache) acquire() *redis.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = redis.NewClient(c.opts)
	}

	return c.client
}

// Connected reports whether an established client can reach Redis. It never
// creates a new client.
func (c *URLCache) Connected(ctx context.Context) bool {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return false
	}

	return client.Ping(ctx).Err() == nil
}

// Release tears down the client. It is safe to call multiple times.
func (c *URLCache) Release() error {
	const op = "cache.URLCache.Release"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	client := c.client
	c.client = nil

	if err := client.Close(); err != nil {
		return fmt.Errorf("%s: failed to close redis client: %w", op, err)
	}

	return nil
}

// absorb implements the fail-open contract in one place: errors are logged
// and swallowed, never propagated.
func (c *URLCache) absorb(op string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Warn("cache operation failed",
		slog.String("op", op),
		slog.Any("err", err),
	)
}

// SetURL stores a mapping snapshot with the given lifetime. Non-positive
// lifetimes are ignored, so already-expired mappings are never cached.
func (c *URLCache) SetURL(ctx context.Context, url *models.URL, ttl time.Duration) {
	const op = "cache.URLCache.SetURL"

	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(url)
	if err != nil {
		c.absorb(op, err)
		return
	}

	c.absorb(op, c.acquire().Set(ctx, urlKey(url.ShortCode), data, ttl).Err())
}

// GetURL returns the cached mapping for a short code, or nil both when the
// key is missing and when Redis is unreachable. The two cases are
// indistinguishable to the caller: absence means "consult the database",
// never "the mapping does not exist".
func (c *URLCache) GetURL(ctx context.Context, shortCode string) *models.URL {
	const op = "cache.URLCache.GetURL"

	data, err := c.acquire().Get(ctx, urlKey(shortCode)).Bytes()
	if err != nil {
		c.absorb(op, err)
		return nil
	}

	url := new(models.URL)
	if err := json.Unmarshal(data, url); err != nil {
		c.absorb(op, err)
		return nil
	}

	return url
}

// DeleteURL removes the cache entry for a short code. Best effort.
func (c *URLCache) DeleteURL(ctx context.Context, shortCode string) {
	const op = "cache.URLCache.DeleteURL"

	c.absorb(op, c.acquire().Del(ctx, urlKey(shortCode)).Err())
}

// DeleteURLs removes the cache entries for multiple short codes at once.
func (c *URLCache) DeleteURLs(ctx context.Context, shortCodes ...string) {
	const op = "cache.URLCache.DeleteURLs"

	if len(shortCodes) == 0 {
		return
	}

	keys := make([]string, 0, len(shortCodes))
	for _, code := range shortCodes {
		keys = append(keys, urlKey(code))
	}

	c.absorb(op, c.acquire().Del(ctx, keys...).Err())
}

// HasURL reports whether a cache entry exists for a short code. Returns
// false when Redis is unreachable.
func (c *URLCache) HasURL(ctx context.Context, shortCode string) bool {
	const op = "cache.URLCache.HasURL"

	n, err := c.acquire().Exists(ctx, urlKey(shortCode)).Result()
	if err != nil {
		c.absorb(op, err)
		return false
	}

	return n == 1
}
