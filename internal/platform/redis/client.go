// Package redis opens the go-redis connection used by the redis sink.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"userflat/internal/platform/config"
)

// ErrNotConfigured is returned by New when REDIS_URL is empty.
var ErrNotConfigured = errors.New("redis: REDIS_URL is not set")

// Client is a pooled connection with a health probe.
type Client struct {
	*goredis.Client
}

// Options translates cfg into go-redis options. Pool and timeout settings in
// cfg override anything in the URL.
func Options(cfg config.RedisConfig) (*goredis.Options, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	return opts, nil
}

// New connects and pings once so a bad URL fails at startup.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{Client: goredis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := c.Health(pingCtx); err != nil {
		_ = c.Client.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
