package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/cache"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/ratelimit"
	redisClient "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
	"github.com/asterix1221/brawl-leaderboard-sub000/pkg/logger"
)

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	defer func() {
		if err = redisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}()

	connectionString, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		URL:          connectionString,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConn:  5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  300 * time.Second,
	}

	log := logger.New("info", "json", "stdout")
	store, err := redisClient.NewClient(cfg, log)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Ping(ctx))

	t.Run("BasicOperations", func(t *testing.T) {
		testBasicOperations(ctx, t, store)
	})

	t.Run("Expiry", func(t *testing.T) {
		testExpiry(ctx, t, store)
	})

	t.Run("DeleteByPrefix", func(t *testing.T) {
		testDeleteByPrefix(ctx, t, store)
	})

	t.Run("AtomicIncrement", func(t *testing.T) {
		testAtomicIncrement(ctx, t, store)
	})

	t.Run("ResponseCache", func(t *testing.T) {
		testResponseCache(ctx, t, store)
	})

	t.Run("RateLimiter", func(t *testing.T) {
		testRateLimiter(ctx, t, store)
	})
}

func testBasicOperations(ctx context.Context, t *testing.T, store redisClient.Store) {
	require.NoError(t, store.Set(ctx, "it:key", "value", time.Minute))

	value, err := store.Get(ctx, "it:key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	exists, err := store.Exists(ctx, "it:key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "it:key"))

	_, err = store.Get(ctx, "it:key")
	assert.ErrorIs(t, err, redisClient.ErrCacheMiss)
}

func testExpiry(ctx context.Context, t *testing.T, store redisClient.Store) {
	require.NoError(t, store.Set(ctx, "it:expiring", "value", time.Second))

	_, err := store.Get(ctx, "it:expiring")
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	_, err = store.Get(ctx, "it:expiring")
	assert.ErrorIs(t, err, redisClient.ErrCacheMiss)
}

func testDeleteByPrefix(ctx context.Context, t *testing.T, store redisClient.Store) {
	require.NoError(t, store.Set(ctx, "leaderboard:global:s1:0:50", "page1", time.Minute))
	require.NoError(t, store.Set(ctx, "leaderboard:EU:s1:0:50", "page2", time.Minute))
	require.NoError(t, store.Set(ctx, "rate_limit:user:1", "1", time.Minute))

	deleted, err := store.DeleteByPrefix(ctx, "leaderboard:")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// Keys outside the prefix survive.
	exists, err := store.Exists(ctx, "rate_limit:user:1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func testAtomicIncrement(ctx context.Context, t *testing.T, store redisClient.Store) {
	for want := int64(1); want <= 3; want++ {
		count, err := store.IncrWithTTL(ctx, "it:counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
}

func testResponseCache(ctx context.Context, t *testing.T, store redisClient.Store) {
	log := logger.New("info", "json", "stdout")
	responseCache := cache.New(store, log)

	require.True(t, responseCache.Set(ctx, "leaderboard:it:page", `{"entries":[]}`, time.Minute))

	value, ok := responseCache.Get(ctx, "leaderboard:it:page")
	require.True(t, ok)
	assert.Equal(t, `{"entries":[]}`, value)

	require.True(t, responseCache.FlushPrefix(ctx, "leaderboard:it:"))

	_, ok = responseCache.Get(ctx, "leaderboard:it:page")
	assert.False(t, ok)
}

func testRateLimiter(ctx context.Context, t *testing.T, store redisClient.Store) {
	log := logger.New("info", "json", "stdout")
	limiter := ratelimit.New(store, 5, time.Minute, log)

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow(ctx, "it-user"), "request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "it-user"))

	require.NoError(t, limiter.Reset(ctx, "it-user"))
	assert.True(t, limiter.Allow(ctx, "it-user"))
}
