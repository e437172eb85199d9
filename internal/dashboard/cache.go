package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"procurement/internal/platform/redis"
	"procurement/pkg/platform/sentinel"
)

// statsKey is the single cache slot for the dashboard snapshot.
const statsKey = "procurement:dashboard:stats"

// Cache stores the serialized snapshot in Redis. A nil client disables
// caching: every method becomes a no-op miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

// Snapshot returns the cached stats or sentinel.ErrNotFound on a miss.
func (c *Cache) Snapshot(ctx context.Context) (*Stats, error) {
	if c == nil || c.client == nil {
		return nil, sentinel.ErrNotFound
	}
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil, sentinel.ErrNotFound
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next
		// store.
		return nil, sentinel.ErrNotFound
	}
	return &stats, nil
}

// StoreSnapshot caches the stats for the configured TTL.
func (c *Cache) StoreSnapshot(ctx context.Context, stats *Stats) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, raw, c.ttl).Err()
}

// InvalidateDashboard drops the snapshot so the next read recomputes it.
func (c *Cache) InvalidateDashboard(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, statsKey).Err()
}
