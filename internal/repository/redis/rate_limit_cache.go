package redis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/client"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

const ipRateLimitPrefix = "ip_rate_limit:"

// RateLimitCache counts requests per caller inside a fixed window, backing
// the collection-trigger endpoint. Redis unavailability fails open: the
// endpoint stays usable, only unmetered.
type RateLimitCache struct {
	client   *client.RedisClient
	requests int
	window   time.Duration
}

// NewRateLimitCache builds the windowed counter with the configured limits.
func NewRateLimitCache(client *client.RedisClient, requests int, window time.Duration) *RateLimitCache {
	return &RateLimitCache{client: client, requests: requests, window: window}
}

// Allow increments the caller's counter and reports whether it is still
// within the window budget.
func (c *RateLimitCache) Allow(ctx context.Context, callerKey string) bool {
	if c == nil || c.client == nil {
		return true
	}

	count, err := c.client.IncrWithExpire(ctx, ipRateLimitPrefix+callerKey, c.window)
	if err != nil {
		util.Debug("Rate limit counter unavailable, allowing request",
			zap.String("caller", callerKey),
			zap.Error(err))
		return true
	}

	if count > int64(c.requests) {
		util.Warn("Rate limit exceeded",
			zap.String("caller", callerKey),
			zap.Int64("count", count),
			zap.Int("limit", c.requests))
		return false
	}
	return true
}
