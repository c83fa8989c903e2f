// Package redis caches remote API snapshots used during reconciliation,
// so one reconciliation run fetches the cache set at most once.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Client wraps Redis snapshot operations.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func snapshotKey(kind, onDate string) string {
	return fmt.Sprintf("snapshot:%s:%s", kind, onDate)
}

// GetSnapshot loads a cached snapshot into dest. Returns false when the
// key is absent or expired.
func (c *Client) GetSnapshot(ctx context.Context, kind, onDate string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, snapshotKey(kind, onDate)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get failed: %w", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("invalid snapshot payload: %w", err)
	}
	return true, nil
}

// SetSnapshot stores a snapshot with the given TTL.
func (c *Client) SetSnapshot(ctx context.Context, kind, onDate string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey(kind, onDate), data, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// InvalidateSnapshot removes a cached snapshot after writes.
func (c *Client) InvalidateSnapshot(ctx context.Context, kind, onDate string) error {
	return c.rdb.Del(ctx, snapshotKey(kind, onDate)).Err()
}
