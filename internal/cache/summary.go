// Package cache provides a Redis-backed cache of dataset validation
// summaries, so dashboard polling does not hit PostgreSQL on every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arclend/lenddash/internal/store"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lenddash:dataset:"

// SummaryCache caches dataset summaries with a TTL.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache creates a cache using the given client. ttl <= 0 disables
// expiry.
func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

// Put stores a dataset summary.
func (c *SummaryCache) Put(ctx context.Context, s *store.DatasetSummary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary %s: %w", s.ID, err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+s.ID.String(), body, c.expiry()).Err(); err != nil {
		return fmt.Errorf("cache summary %s: %w", s.ID, err)
	}
	return nil
}

// Get returns a cached summary, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context, id string) (*store.DatasetSummary, error) {
	body, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached summary %s: %w", id, err)
	}
	var s store.DatasetSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode cached summary %s: %w", id, err)
	}
	return &s, nil
}

// Invalidate removes a cached summary. Missing keys are not an error.
func (c *SummaryCache) Invalidate(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("invalidate summary %s: %w", id, err)
	}
	return nil
}

func (c *SummaryCache) expiry() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl
}
