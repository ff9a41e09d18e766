package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const completionKeyPrefix = "completion:"

// CompletionCache stores gateway replies keyed by a digest of the outbound
// history. A cache failure is reported as a miss; it never fails the request.
type CompletionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCompletionCache builds the cache. A nil client or non-positive TTL
// disables it.
func NewCompletionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *CompletionCache {
	return &CompletionCache{client: client, ttl: ttl, logger: logger}
}

func (c *CompletionCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Key derives the cache key for a serialized history.
func Key(serializedHistory string) string {
	digest := sha256.Sum256([]byte(serializedHistory))
	return completionKeyPrefix + hex.EncodeToString(digest[:])
}

// Get returns a cached reply and whether one was present.
func (c *CompletionCache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	reply, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Warn("completion cache get failed", zap.Error(err))
		return "", false
	}
	return reply, true
}

// Set stores a reply under the key for the configured TTL.
func (c *CompletionCache) Set(ctx context.Context, key, reply string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Set(ctx, key, reply, c.ttl).Err(); err != nil {
		c.logger.Warn("completion cache set failed", zap.Error(err))
	}
}
