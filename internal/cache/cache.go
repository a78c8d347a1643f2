// Package cache stores Google responses in Redis, keyed by the unsigned request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "googleapi:cache:"

// Cache is a read-through response cache. A nil *Cache or one without a Redis
// client never hits and silently drops writes.
type Cache struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{rdb: rdb, prefix: prefix}
}

// Key derives the cache key of a request. tenantID keeps tenants apart even
// when they share Google credentials; requestURI must not carry a signature.
func (c *Cache) Key(tenantID, api, requestURI string) string {
	prefix := defaultPrefix
	if c != nil {
		prefix = c.prefix
	}
	h := sha256.Sum256([]byte(tenantID + "\x00" + requestURI))
	return prefix + api + ":" + hex.EncodeToString(h[:16])
}

// Get returns the cached body and whether it was found.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	body, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return body, true
}

// Set stores body for ttl; ttl <= 0 skips caching.
func (c *Cache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if c == nil || c.rdb == nil || ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, key, body, ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
