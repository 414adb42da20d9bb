package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryCache is a process-local TTL cache. Expired entries are dropped on read
// and by a background sweep.
type InMemoryCache struct {
	entries         sync.Map // map[string]*cacheEntry
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	logger          *zap.Logger
	stopCh          chan struct{}
	stopped         int32

	hits   int64
	misses int64
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryCacheOption is a functional option for configuring the cache
type InMemoryCacheOption func(*InMemoryCache)

// WithTTL sets the default entry lifetime
func WithTTL(ttl time.Duration) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		c.logger = logger
	}
}

// NewInMemoryCache creates a cache and starts its sweep goroutine; Close stops it
func NewInMemoryCache(opts ...InMemoryCacheOption) *InMemoryCache {
	c := &InMemoryCache{
		ttl:             defaultTTL,
		cleanupInterval: defaultCleanupInterval,
		now:             time.Now,
		logger:          zap.NewNop(),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true, nil
		}
		c.entries.CompareAndDelete(key, value)
	}
	atomic.AddInt64(&c.misses, 1)
	return "", false, nil
}

// Set stores a value in cache
func (c *InMemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.entries.Store(key, &cacheEntry{value: value, expiresAt: c.now().Add(ttl)})
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *InMemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	removed := 0
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	c.logger.Debug("invalidated L1 cache entries", zap.String("prefix", prefix), zap.Int("removed", removed))
	return nil
}

// Close stops the sweep goroutine
func (c *InMemoryCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries, expired or not
func (c *InMemoryCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *InMemoryCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup", zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

func (c *InMemoryCache) doCleanup() {
	now := c.now()
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired(now) {
			c.entries.CompareAndDelete(key, value)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired L1 cache entries", zap.Int("removed", removed))
	}
}

var _ Cache = (*InMemoryCache)(nil)
