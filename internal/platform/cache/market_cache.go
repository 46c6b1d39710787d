// Package cache holds fetched candle series keyed by (instrument, granularity, count).
package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/usecase"
	"fxchart_backend/internal/platform/metrics"
)

// Store is the backend behind MarketDataCache.
type Store interface {
	Get(ctx context.Context, key entity.FetchKey) ([]entity.Candle, bool, error)
	Put(ctx context.Context, key entity.FetchKey, candles []entity.Candle) error
	Clear(ctx context.Context) error
}

// MarketDataCache serializes every Get, Put and Clear under a single lock.
// Entries never expire; only Clear removes them.
type MarketDataCache struct {
	mu      sync.Locker
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ usecase.CandleCache = (*MarketDataCache)(nil)

// Option configures a MarketDataCache.
type Option func(*MarketDataCache)

// WithLocker replaces the default mutex.
func WithLocker(l sync.Locker) Option {
	return func(c *MarketDataCache) {
		if l != nil {
			c.mu = l
		}
	}
}

// WithMetrics counts hits, misses and clears.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *MarketDataCache) { c.metrics = m }
}

// WithLogger sets the logger used for backend failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *MarketDataCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a MarketDataCache over store. A nil store means an in-process MemoryStore.
func New(store Store, opts ...Option) *MarketDataCache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &MarketDataCache{
		mu:     &sync.Mutex{},
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached series for key. A backend error is logged and reported as a miss.
func (c *MarketDataCache) Get(ctx context.Context, key entity.FetchKey) ([]entity.Candle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cs, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", zap.Any("key", key), zap.Error(err))
		ok = false
	}
	if !ok {
		c.metrics.CacheMiss()
		return nil, false
	}
	c.metrics.CacheHit()
	return cs, true
}

// Put stores candles under key, replacing any previous entry. Backend errors are logged only.
func (c *MarketDataCache) Put(ctx context.Context, key entity.FetchKey, candles []entity.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Put(ctx, key, candles); err != nil {
		c.logger.Warn("cache write failed", zap.Any("key", key), zap.Error(err))
	}
}

// Clear removes every entry.
func (c *MarketDataCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.metrics.CacheCleared()
	return nil
}
