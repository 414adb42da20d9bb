package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TieredCache reads through an in-process L1 to a shared L2. Writes go to both;
// invalidation clears both. L2 faults are logged and degrade to L1 only.
type TieredCache struct {
	l1     *InMemoryCache
	l2     Cache
	logger *zap.Logger
}

// NewTieredCache creates a two-level cache
func NewTieredCache(l1 *InMemoryCache, l2 Cache, logger *zap.Logger) *TieredCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredCache{l1: l1, l2: l2, logger: logger}
}

// Get checks L1, then L2, back-filling L1 on an L2 hit
func (c *TieredCache) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok, _ := c.l1.Get(ctx, key); ok {
		return value, true, nil
	}

	value, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L2 cache get failed", zap.String("key", key), zap.Error(err))
		return "", false, nil
	}
	if !ok {
		return "", false, nil
	}
	_ = c.l1.Set(ctx, key, value, 0)
	return value, true, nil
}

// Set writes to both levels
func (c *TieredCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = c.l1.Set(ctx, key, value, ttl)
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("L2 cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// DeletePrefix clears both levels. An L2 failure is returned so callers know
// other instances may still see stale values.
func (c *TieredCache) DeletePrefix(ctx context.Context, prefix string) error {
	_ = c.l1.DeletePrefix(ctx, prefix)
	return c.l2.DeletePrefix(ctx, prefix)
}

// Close closes both levels
func (c *TieredCache) Close() error {
	return errors.Join(c.l1.Close(), c.l2.Close())
}

var _ Cache = (*TieredCache)(nil)
