package cache

import (
	"fmt"

	"github.com/siocms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the configuration cache. With Redis enabled it returns a tiered cache;
// if Redis is unreachable it falls back to the in-memory cache unless fallback is
// disallowed.
func New(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, allowFallback bool, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l1 := NewInMemoryCache(
		WithTTL(cacheCfg.TTL),
		WithCleanupInterval(cacheCfg.CleanupInterval),
		WithInMemoryLogger(logger),
	)
	if !redisCfg.Enabled {
		logger.Info("using in-memory configuration cache")
		return l1, nil
	}

	l2, err := NewRedisCache(RedisConfig{
		Host:     redisCfg.Host,
		Port:     redisCfg.Port,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}, cacheCfg.TTL)
	if err == nil {
		logger.Info("using tiered configuration cache")
		return NewTieredCache(l1, l2, logger), nil
	}

	if !allowFallback {
		_ = l1.Close()
		return nil, fmt.Errorf("Redis required for configuration cache but unavailable: %w", err)
	}
	logger.Warn("Redis unavailable, falling back to in-memory configuration cache. "+
		"Configuration changes on other instances are seen only after the TTL expires.",
		zap.Error(err),
	)
	return l1, nil
}
