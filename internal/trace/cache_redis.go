package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// StatusCache bounds the cost of repeated status reads. A miss is reported as
// sentinel.ErrNotFound; any other error is a cache failure the caller may
// ignore.
type StatusCache interface {
	Find(ctx context.Context, batchID domain.BatchID) (*Status, error)
	Save(ctx context.Context, status *Status) error
}

type RedisCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client goredis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func statusKey(batchID domain.BatchID) string {
	return "pharmatrace:status:" + string(batchID)
}

func (c *RedisCache) Find(ctx context.Context, batchID domain.BatchID) (*Status, error) {
	raw, err := c.client.Get(ctx, statusKey(batchID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &status, nil
}

func (c *RedisCache) Save(ctx context.Context, status *Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, statusKey(status.BatchID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
