package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PageCachePrefix is the key prefix for cached rendered pages
	PageCachePrefix = "page:"

	// PageCacheTTL is how long a rendered page stays cached. Writes never
	// invalidate the cache, so a new post can be absent from a cached
	// listing for up to this long.
	PageCacheTTL = 20 * time.Second
)

// CachedPage is a rendered response stored by URL.
type CachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache defines the interface for the process-wide page cache.
// Using an interface enables testing with an in-memory fake.
type PageCache interface {
	// Get returns the cached page for the key, or found=false on a miss.
	Get(ctx context.Context, key string) (page *CachedPage, found bool, err error)

	// Set stores the rendered page under the key with the fixed TTL.
	Set(ctx context.Context, key string, page *CachedPage) error
}

// RedisPageCache implements PageCache using plain Redis keys with expiry.
type RedisPageCache struct {
	client *redis.Client
}

// NewPageCache creates a PageCache backed by Redis.
func NewPageCache(client *redis.Client) PageCache {
	return &RedisPageCache{client: client}
}

// pageKey returns the Redis key for a request URL.
func pageKey(url string) string {
	return PageCachePrefix + url
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (*CachedPage, bool, error) {
	data, err := c.client.Get(ctx, pageKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[PageCache] Get FAILED: key=%s err=%v", key, err)
		return nil, false, fmt.Errorf("get page: %w", err)
	}

	var page CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		log.Printf("[PageCache] Get parse error: key=%s err=%v", key, err)
		return nil, false, fmt.Errorf("unmarshal page: %w", err)
	}

	return &page, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, page *CachedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	if err := c.client.Set(ctx, pageKey(key), data, PageCacheTTL).Err(); err != nil {
		log.Printf("[PageCache] Set FAILED: key=%s err=%v", key, err)
		return fmt.Errorf("set page: %w", err)
	}

	return nil
}
