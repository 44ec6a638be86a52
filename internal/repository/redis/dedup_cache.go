package redis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/client"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

const fingerprintPrefix = "fingerprint:"

// DedupCache is a best-effort pre-filter in front of the Mongo uniqueness
// constraint. A cache hit saves a round-trip for items re-fetched every
// cycle; a cache miss or Redis outage simply defers to the store's unique
// index, so correctness never depends on it.
type DedupCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

// NewDedupCache builds the fingerprint cache with the configured TTL.
func NewDedupCache(client *client.RedisClient, ttl time.Duration) *DedupCache {
	return &DedupCache{client: client, ttl: ttl}
}

// MarkSeen records the fingerprint and reports whether it was already
// present. Errors degrade to "not seen" so the caller falls through to the
// store.
func (c *DedupCache) MarkSeen(ctx context.Context, fingerprint string) bool {
	if c == nil || c.client == nil {
		return false
	}

	set, err := c.client.SetNX(ctx, fingerprintPrefix+fingerprint, 1, c.ttl)
	if err != nil {
		util.Debug("Dedup cache unavailable, deferring to store",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return false
	}
	return !set
}

// Forget drops a fingerprint, used when a cached item failed to persist and
// must be retried next cycle.
func (c *DedupCache) Forget(ctx context.Context, fingerprint string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, fingerprintPrefix+fingerprint); err != nil {
		util.Debug("Failed to evict fingerprint from dedup cache",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
	}
}
