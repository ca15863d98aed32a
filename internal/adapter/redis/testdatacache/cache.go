// package testdatacache caches test-case file content in Redis so hot
// questions do not hit the data store on every run
package testdatacache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/judgecore-2025.net/internal/core/ports/primary"
	"gitlab.com/judgecore-2025.net/internal/core/ports/secondary"
)

const keyPrefix = "testdata:"

// Cache decorates a TestDataStore with a Redis read-through cache. Entries
// expire by TTL; content invalidation is the catalog's concern since paths
// are versioned per question.
type Cache struct {
	redisClient *redis.Client
	inner       secondary.TestDataStore
	ttl         time.Duration
	logger      primary.Logger
}

// NewCache creates a new read-through cache over inner
func NewCache(redisClient *redis.Client, inner secondary.TestDataStore, ttl time.Duration, logger primary.Logger) *Cache {
	return &Cache{
		redisClient: redisClient,
		inner:       inner,
		ttl:         ttl,
		logger:      logger,
	}
}

// Read returns cached content when present, otherwise reads through and
// populates the cache
func (c *Cache) Read(ctx context.Context, path string) ([]byte, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, path)

	data, err := c.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		return data, nil
	}
	if err != redis.Nil {
		// cache trouble must not fail judging; fall through to the store
		c.logger.Warn("Test data cache read failed", "path", path, "error", err)
	}

	data, err = c.inner.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Test data cache write failed", "path", path, "error", err)
	}
	return data, nil
}
