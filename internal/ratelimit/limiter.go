// Package ratelimit implements fixed-window rate limiting over the shared
// key-value store. Check and increment are collapsed into one atomic
// increment-with-expiry round trip so concurrent requests for the same
// identifier cannot overshoot the window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	redisStore "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
)

// KeyPrefix namespaces rate counters in the key-value store.
const KeyPrefix = "rate_limit:"

// Limiter counts requests per identifier within a fixed window. Exactly
// maxRequests requests per window are allowed; the next one is denied
// until the counter's TTL elapses and counting restarts from empty.
type Limiter struct {
	store       redisStore.Store
	maxRequests int
	window      time.Duration
	logger      *logrus.Logger
}

// New creates a fixed-window limiter over the given store.
func New(store redisStore.Store, maxRequests int, window time.Duration, logger *logrus.Logger) *Limiter {
	return &Limiter{
		store:       store,
		maxRequests: maxRequests,
		window:      window,
		logger:      logger,
	}
}

// Allow records one request for identifier and reports whether it is
// within the limit. On store failure the request is allowed so a broken
// counter store never blocks legitimate traffic.
func (l *Limiter) Allow(ctx context.Context, identifier string) bool {
	count, err := l.store.IncrWithTTL(ctx, KeyPrefix+identifier, l.window)
	if err != nil {
		l.logger.WithError(err).WithField("identifier", identifier).
			Error("Rate limit check failed, allowing request")
		return true
	}

	if count > int64(l.maxRequests) {
		l.logger.WithFields(logrus.Fields{
			"identifier": identifier,
			"count":      count,
			"max":        l.maxRequests,
		}).Warn("Rate limit exceeded")
		return false
	}

	return true
}

// Reset clears the counter for identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.store.Delete(ctx, KeyPrefix+identifier); err != nil {
		return fmt.Errorf("failed to reset rate counter for %q: %w", identifier, err)
	}
	return nil
}

// Window returns the configured window, used for Retry-After headers.
func (l *Limiter) Window() time.Duration {
	return l.window
}
