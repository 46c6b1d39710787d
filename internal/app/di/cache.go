package di

import (
	"context"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/platform/cache"
	"fxchart_backend/internal/platform/metrics"
	infraredis "fxchart_backend/internal/platform/redis"
)

// NewCandleCache creates the candle cache.
// If Redis is configured and reachable, it returns a Redis-backed cache.
// Otherwise, it falls back to process memory.
// The returned client is nil when Redis is not in use; the caller closes it.
func NewCandleCache(ctx context.Context, cfg config.AppConfig, m *metrics.Metrics, logger *zap.Logger) (*cache.MarketDataCache, *redisv9.Client) {
	opts := []cache.Option{cache.WithMetrics(m), cache.WithLogger(logger)}

	if cfg.Cache.Backend == "redis" {
		rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, logger)
		if err == nil {
			return cache.New(cache.NewRedisStore(rdb, cfg.Cache.Namespace), opts...), rdb
		}
		logger.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
	}
	return cache.New(newMemoryStore(cfg.Cache.MaxEntries, logger), opts...), nil
}

func newMemoryStore(maxEntries int, logger *zap.Logger) cache.Store {
	if maxEntries <= 0 {
		return cache.NewMemoryStore()
	}
	s, err := cache.NewLRUStore(maxEntries)
	if err != nil {
		logger.Warn("bounded cache unavailable, keeping every series", zap.Error(err))
		return cache.NewMemoryStore()
	}
	return s
}
