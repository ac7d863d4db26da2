package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/realty-service/internal/domain"
)

const aggregateKeyPrefix = "rating:aggregate:"

// AggregateCache keeps derived rating aggregates in Redis.
type AggregateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAggregateCache builds a cache; a nil client or non-positive ttl returns nil,
// which callers treat as "no cache".
func NewAggregateCache(client *redis.Client, ttl time.Duration) *AggregateCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &AggregateCache{client: client, ttl: ttl}
}

// Get returns the cached aggregate and whether it was present.
func (c *AggregateCache) Get(ctx context.Context, rateeID string) (domain.Aggregate, bool, error) {
	raw, err := c.client.Get(ctx, aggregateKey(rateeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Aggregate{}, false, nil
	}
	if err != nil {
		return domain.Aggregate{}, false, err
	}

	var agg domain.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return domain.Aggregate{}, false, err
	}
	return agg, true, nil
}

// Set stores agg under its ratee id.
func (c *AggregateCache) Set(ctx context.Context, agg domain.Aggregate) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, aggregateKey(agg.RateeID), string(raw), c.ttl).Err()
}

// Invalidate drops the cached aggregate for rateeID.
func (c *AggregateCache) Invalidate(ctx context.Context, rateeID string) error {
	return c.client.Del(ctx, aggregateKey(rateeID)).Err()
}

func aggregateKey(rateeID string) string {
	return aggregateKeyPrefix + rateeID
}
