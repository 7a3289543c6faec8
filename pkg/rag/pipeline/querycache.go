package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const queryCacheTTL = 30 * time.Minute

// QueryCache memoizes enhanced queries in redis so repeated questions skip
// the rewrite work. All methods are safe on a nil receiver: callers without
// redis simply get cache misses.
type QueryCache struct {
	client *redis.Client
}

func NewQueryCache(client *redis.Client) *QueryCache {
	if client == nil {
		return nil
	}
	return &QueryCache{client: client}
}

func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "search:enhanced:" + hex.EncodeToString(sum[:])
}

func (c *QueryCache) Get(ctx context.Context, question string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, cacheKey(question)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *QueryCache) Set(ctx context.Context, question, enhanced string) {
	if c == nil {
		return
	}
	// Best effort. A failed write only costs a future rewrite.
	c.client.Set(ctx, cacheKey(question), enhanced, queryCacheTTL)
}
