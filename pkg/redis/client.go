package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
)

// Client wraps the Redis connection. When Redis is disabled in config the
// client degrades to a no-op so callers never need to branch on deployment
// shape.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a Redis client, or a disabled stand-in when REDIS_ENABLED is
// false.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether a real connection is behind this client.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying client for advanced usage.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
