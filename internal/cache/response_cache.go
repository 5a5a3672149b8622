// Package cache provides a thin response cache over the shared key-value
// store. Store failures are surfaced as absent values or false returns,
// never as errors: callers always treat cache failure as "proceed without
// cache" and fall back to the source of truth.
package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	redisStore "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"prefix"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"prefix"},
	)
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses)
}

// ResponseCache wraps the key-value store with failure-tolerant semantics.
type ResponseCache struct {
	store  redisStore.Store
	logger *logrus.Logger
}

// New creates a response cache over the given store.
func New(store redisStore.Store, logger *logrus.Logger) *ResponseCache {
	return &ResponseCache{store: store, logger: logger}
}

// Get returns the cached value and true on a hit. Misses and store
// failures both return false; failures are logged.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if err != redisStore.ErrCacheMiss {
			c.logger.WithError(err).WithField("key", key).Warn("Cache read failed, treating as miss")
		}
		cacheMisses.WithLabelValues(keyPrefix(key)).Inc()
		return "", false
	}

	cacheHits.WithLabelValues(keyPrefix(key)).Inc()
	return value, true
}

// Set stores value under key with the given TTL and reports success.
// Failures are logged and non-fatal.
func (c *ResponseCache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		return false
	}
	return true
}

// Delete removes key and reports success.
func (c *ResponseCache) Delete(ctx context.Context, key string) bool {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache delete failed")
		return false
	}
	return true
}

// Exists reports whether key is cached. Store failures report false.
func (c *ResponseCache) Exists(ctx context.Context, key string) bool {
	present, err := c.store.Exists(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache existence check failed")
		return false
	}
	return present
}

// FlushPrefix removes every cached entry under prefix and reports success.
func (c *ResponseCache) FlushPrefix(ctx context.Context, prefix string) bool {
	deleted, err := c.store.DeleteByPrefix(ctx, prefix)
	if err != nil {
		c.logger.WithError(err).WithField("prefix", prefix).Warn("Cache flush failed")
		return false
	}

	c.logger.WithFields(logrus.Fields{
		"prefix":  prefix,
		"deleted": deleted,
	}).Debug("Flushed cache entries")
	return true
}

// keyPrefix extracts the segment before the first ':' for metric labels.
func keyPrefix(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
