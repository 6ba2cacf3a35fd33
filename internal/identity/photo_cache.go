package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// LRUPhotoCache keeps probe results in process memory.
type LRUPhotoCache struct {
	cache *lru.LRU[string, string]
}

func NewLRUPhotoCache(size int, ttl time.Duration) *LRUPhotoCache {
	if size <= 0 {
		size = 1024
	}
	return &LRUPhotoCache{cache: lru.NewLRU[string, string](size, nil, ttl)}
}

func (c *LRUPhotoCache) Get(_ context.Context, key string) (string, bool) {
	return c.cache.Get(key)
}

func (c *LRUPhotoCache) Set(_ context.Context, key, url string) {
	c.cache.Add(key, url)
}

// RedisPhotoCache shares probe results across API instances. Redis errors
// degrade to a cache miss; the locator then probes again.
type RedisPhotoCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func NewRedisPhotoCache(rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *RedisPhotoCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisPhotoCache{rdb: rdb, ttl: ttl, prefix: "permits:", log: log}
}

func (c *RedisPhotoCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.log.WarnContext(ctx, "photo cache get failed", "key", key, "err", err)
		return "", false
	}
	return v, true
}

func (c *RedisPhotoCache) Set(ctx context.Context, key, url string) {
	if err := c.rdb.Set(ctx, c.prefix+key, url, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "photo cache set failed", "key", key, "err", err)
	}
}
