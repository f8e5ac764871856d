package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/stockscan/pkg/config"
)

// Client wraps the go-redis client. With Redis disabled in config every
// operation is a no-op, so callers never branch on availability.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

const pingTimeout = 5 * time.Second

// New connects per config, or returns a disabled no-op client.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Close releases the connection. Safe on a disabled client.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a real connection is behind this client.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis exposes the underlying client for operations the wrapper does not
// cover.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
