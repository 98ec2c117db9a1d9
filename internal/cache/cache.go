// Package cache is a small Redis read-cache for list endpoints.
// Read-after-write consistency works by invalidation: checkout drops the
// affected keys and the next read repopulates them from Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ProductListKey = "products:list"
)

func UserOrdersKey(userID string) string     { return "orders:user:" + userID }
func VendorOrdersKey(vendorID string) string { return "orders:vendor:" + vendorID }

// Invalidator is the slice of the cache checkout needs.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration) *Cache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Cache{rdb: rdb, ttl: ttl}
}

// Ping verifies the connection, for /healthz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetJSON loads key into dest. A miss or a cache error both return
// false: the cache is best-effort and never fails a request.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Printf("[cache] decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores v under key with the configured TTL. Errors are logged
// and swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[cache] encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Invalidate drops the given keys. Errors are logged and swallowed: a
// stale entry expires by TTL anyway.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] invalidate %v: %v", keys, err)
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error { return c.rdb.Close() }
