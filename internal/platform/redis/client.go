// Package redis provides the shared client behind the grant pair cache.
// The cache is optional; with no URL configured the ledger runs against
// its stores directly.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/internal/platform/config"
)

const dialCheckTimeout = 5 * time.Second

// Client wraps the go-redis client with a health probe for readiness checks.
type Client struct {
	*redis.Client
}

// New dials Redis from the configured URL. Returns (nil, nil) when no URL is
// set; callers treat a nil client as cache disabled.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialCheckTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection answers a ping.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
