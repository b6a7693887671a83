package cache

import (
	"context"
	"sync"
	"time"

	"subtube/domain/repository"
	"subtube/infrastructure/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const redisKeyPrefix = "subtube:cache:"

type entry struct {
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

// ExtractionCache memoizes external API calls by call signature. Entries are
// never evicted, only overwritten on re-fetch after expiry; call volume is
// bounded by subscription and video count, so no size bound is needed.
// An optional Redis tier keeps entries across process restarts.
type ExtractionCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	redis   *redis.Client
	now     func() time.Time
}

func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithRedis enables the persistent tier (fluent).
func (c *ExtractionCache) WithRedis(client *redis.Client) *ExtractionCache {
	c.redis = client
	return c
}

// GetOrFetch returns the cached payload when the entry for key is younger than
// ttl, otherwise invokes fetch exactly once (concurrent callers for the same
// key share the one in-flight call) and stores the result.
func (c *ExtractionCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch repository.FetchFunc) ([]byte, error) {
	if payload, ok := c.lookup(key); ok {
		return payload, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have refreshed the entry while we waited.
		if payload, ok := c.lookup(key); ok {
			return payload, nil
		}
		if payload, ok := c.lookupRedis(ctx, key, ttl); ok {
			return payload, nil
		}

		payload, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, payload, ttl)
		c.storeRedis(ctx, key, payload, ttl)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *ExtractionCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.createdAt) >= e.ttl {
		return nil, false
	}
	return e.payload, true
}

func (c *ExtractionCache) store(key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, createdAt: c.now(), ttl: ttl}
}

func (c *ExtractionCache) lookupRedis(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	pipe := c.redis.Pipeline()
	getCmd := pipe.Get(ctx, redisKeyPrefix+key)
	ttlCmd := pipe.TTL(ctx, redisKeyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("Redis cache read failed")
		return nil, false
	}
	payload, err := getCmd.Bytes()
	if err != nil {
		return nil, false
	}
	// The in-memory copy inherits the key's remaining lifetime; a promotion
	// must not restart the freshness window.
	remaining := ttlCmd.Val()
	if remaining <= 0 || remaining > ttl {
		remaining = ttl
	}
	c.store(key, payload, remaining)
	return payload, true
}

func (c *ExtractionCache) storeRedis(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, redisKeyPrefix+key, payload, ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("Redis cache write failed")
	}
}
