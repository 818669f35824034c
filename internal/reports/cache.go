package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/furnistore/furnistore-backend/pkg/redis"
)

// reportCache memoizes serialized report payloads in redis. Reads never fail
// the report: a cache error just means the query runs again.
type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newReportCache(client *redis.Client, ttl time.Duration) *reportCache {
	return &reportCache{client: client, ttl: ttl}
}

func (c *reportCache) get(ctx context.Context, key string, out any) bool {
	if c == nil || c.client == nil {
		return false
	}
	payload, err := c.client.Get(ctx, c.client.CacheKey("reports", key))
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(payload), out) == nil
}

func (c *reportCache) set(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.client.CacheKey("reports", key), string(payload), c.ttl)
}
