package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// manualClock is a settable time source
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, opts ...InMemoryCacheOption) (*InMemoryCache, *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewInMemoryCache(append([]InMemoryCacheOption{WithClock(clock.Now)}, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestInMemoryCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	hits, misses := c.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, WithTTL(10*time.Second))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "default-ttl", "a", 0))
	require.NoError(t, c.Set(ctx, "long", "b", time.Hour))

	clock.Advance(11 * time.Second)

	_, ok, _ := c.Get(ctx, "default-ttl")
	assert.False(t, ok)
	value, ok, _ := c.Get(ctx, "long")
	assert.True(t, ok)
	assert.Equal(t, "b", value)
	assert.Equal(t, 1, c.Count())
}

func TestInMemoryCache_Cleanup(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", "1", time.Second))
	require.NoError(t, c.Set(ctx, "b", "2", time.Hour))

	clock.Advance(time.Minute)
	c.doCleanup()

	assert.Equal(t, 1, c.Count())
}

func TestInMemoryCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, Key("cms", "config", "ThemeId", "en-us"), "1", 0))
	require.NoError(t, c.Set(ctx, Key("cms", "config", "ThemeId", "fr-fr"), "2", 0))
	require.NoError(t, c.Set(ctx, Key("cms", "config", "ThemeName", "en-us"), "Default", 0))

	require.NoError(t, c.DeletePrefix(ctx, Key("cms", "config", "ThemeId")+":"))

	assert.Equal(t, 1, c.Count())
	_, ok, _ := c.Get(ctx, "cms:config:ThemeName:en-us")
	assert.True(t, ok)
}

func TestInMemoryCache_CloseTwice(t *testing.T) {
	c := NewInMemoryCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

// failingCache fails every call
type failingCache struct{}

var errUnavailable = errors.New("unavailable")

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errUnavailable
}
func (failingCache) Set(context.Context, string, string, time.Duration) error { return errUnavailable }
func (failingCache) DeletePrefix(context.Context, string) error              { return errUnavailable }
func (failingCache) Close() error                                            { return nil }

func TestTieredCache(t *testing.T) {
	ctx := context.Background()

	t.Run("L2 hit back-fills L1", func(t *testing.T) {
		l1, _ := newTestCache(t)
		l2, _ := newTestCache(t)
		tiered := NewTieredCache(l1, l2, nil)
		require.NoError(t, l2.Set(ctx, "k", "shared", 0))

		value, ok, err := tiered.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "shared", value)

		value, ok, _ = l1.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, "shared", value)
	})

	t.Run("set and invalidate touch both levels", func(t *testing.T) {
		l1, _ := newTestCache(t)
		l2, _ := newTestCache(t)
		tiered := NewTieredCache(l1, l2, nil)

		require.NoError(t, tiered.Set(ctx, "p:a", "1", 0))
		assert.Equal(t, 1, l1.Count())
		assert.Equal(t, 1, l2.Count())

		require.NoError(t, tiered.DeletePrefix(ctx, "p:"))
		assert.Zero(t, l1.Count())
		assert.Zero(t, l2.Count())
	})

	t.Run("L2 faults degrade to L1", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		l1, _ := newTestCache(t)
		tiered := NewTieredCache(l1, failingCache{}, zap.New(core))

		require.NoError(t, tiered.Set(ctx, "k", "v", 0))
		value, ok, err := tiered.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", value)

		_, ok, err = tiered.Get(ctx, "other")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, tiered.DeletePrefix(ctx, "k"), errUnavailable)
		assert.Equal(t, 1, recorded.FilterMessage("L2 cache set failed").Len())
		assert.Equal(t, 1, recorded.FilterMessage("L2 cache get failed").Len())
	})
}

func TestNew(t *testing.T) {
	cacheCfg := config.CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute}
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("redis disabled", func(t *testing.T) {
		c, err := New(config.RedisConfig{}, cacheCfg, false, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		assert.IsType(t, &InMemoryCache{}, c)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		c, err := New(unreachable, cacheCfg, true, zap.New(core))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		assert.IsType(t, &InMemoryCache{}, c)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("fails when fallback is not allowed", func(t *testing.T) {
		_, err := New(unreachable, cacheCfg, false, nil)
		assert.Error(t, err)
	})
}

// Integration test, requires a Redis server at CMS_TEST_REDIS_ADDR
func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("CMS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test. Set CMS_TEST_REDIS_ADDR to enable.")
	}
	ctx := context.Background()
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: addr}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	prefix := Key("cms_test", time.Now().Format("150405.000"))
	require.NoError(t, c.Set(ctx, Key(prefix, "a"), "1", 0))
	require.NoError(t, c.Set(ctx, Key(prefix, "b"), "2", 0))

	value, ok, err := c.Get(ctx, Key(prefix, "a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	require.NoError(t, c.DeletePrefix(ctx, prefix+":"))
	_, ok, err = c.Get(ctx, Key(prefix, "b"))
	require.NoError(t, err)
	assert.False(t, ok)
}
