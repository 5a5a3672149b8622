// Package redis provides the shared key-value store backing the response
// cache and the rate limiter. Keys are prefixed to avoid collisions:
//
//   - leaderboard:{region}:{season}:{offset}:{limit} - cached pages with TTL
//   - rate_limit:{identifier} - fixed-window request counters with TTL
//
// A Redis-backed client is the production implementation; an in-memory
// store in this package implements the same interface for development and
// tests. All operations are context-aware.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
)

// ErrCacheMiss is returned when a key does not exist. Callers use it to
// distinguish an expected miss from an actual store failure.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key-value contract shared by the Redis client and the
// in-memory fallback. Implementations must be safe for concurrent use.
type Store interface {
	// Close releases the underlying connections.
	Close() error

	// Ping verifies connectivity to the store.
	Ping(ctx context.Context) error

	// Get returns the value for key, or ErrCacheMiss if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero ttl stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// DeleteByPrefix removes every key with the given prefix and returns
	// the number of keys deleted.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// IncrWithTTL atomically increments the counter at key and, when the
	// counter is created by this call, sets its TTL. It returns the
	// post-increment count. A single round trip: the counter can never be
	// observed between check and increment.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Client implements Store on top of a pooled go-redis client.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// incrWithTTLScript performs INCR and EXPIRE as one atomic server-side
// operation so concurrent requests cannot overshoot the window.
var incrWithTTLScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// NewClient creates a Redis-backed store, validates connectivity with an
// initial ping, and returns a ready client.
func NewClient(cfg *config.RedisConfig, logger *logrus.Logger) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password // pragma: allowlist secret
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConn
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	opts.ConnMaxIdleTime = cfg.IdleTimeout

	client := &Client{
		rdb:    redis.NewClient(opts),
		logger: logger,
	}

	if pingErr := client.Ping(context.Background()); pingErr != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}

	logger.Info("Connected to Redis successfully")

	return client, nil
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.logger.WithError(err).Error("Failed to close Redis connection")
		return err
	}
	c.logger.Info("Redis connection closed")
	return nil
}

// Ping sends a PING command for health checks.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get returns the value for key, or ErrCacheMiss if absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with the given TTL.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Delete removes key; absent keys are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key %q: %w", key, err)
	}
	return n > 0, nil
}

// DeleteByPrefix scans for keys with the prefix and deletes them in
// batches. SCAN keeps the operation safe on large keyspaces.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			n, err := c.rdb.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys with prefix %q: %w", prefix, err)
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan keys with prefix %q: %w", prefix, err)
	}

	if len(batch) > 0 {
		n, err := c.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete keys with prefix %q: %w", prefix, err)
		}
		deleted += int(n)
	}

	c.logger.WithFields(logrus.Fields{
		"prefix":  prefix,
		"deleted": deleted,
	}).Debug("Deleted keys by prefix")

	return deleted, nil
}

// IncrWithTTL runs the atomic increment-and-expire script.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	seconds := int(ttl.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	count, err := incrWithTTLScript.Run(ctx, c.rdb, []string{key}, seconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", key, err)
	}
	return count, nil
}
