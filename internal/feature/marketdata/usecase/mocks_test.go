package usecase_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// mockProvider はMarketProviderインターフェースのモック実装です。
type mockProvider struct {
	mu                sync.Mutex
	CandlesFunc       func(ctx context.Context, key entity.FetchKey) ([]entity.Candle, error)
	LatestCandlesFunc func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
	CandlesCalls      int
	LatestCalls       int
}

func (m *mockProvider) Candles(ctx context.Context, key entity.FetchKey) ([]entity.Candle, error) {
	m.mu.Lock()
	m.CandlesCalls++
	m.mu.Unlock()
	if m.CandlesFunc != nil {
		return m.CandlesFunc(ctx, key)
	}
	return nil, errors.New("CandlesFunc is not implemented")
}

func (m *mockProvider) LatestCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	m.mu.Lock()
	m.LatestCalls++
	m.mu.Unlock()
	if m.LatestCandlesFunc != nil {
		return m.LatestCandlesFunc(ctx, instrument, granularity, count)
	}
	return nil, errors.New("LatestCandlesFunc is not implemented")
}

func (m *mockProvider) candlesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CandlesCalls
}

// mapCache はCandleCacheのインメモリ実装です。
type mapCache struct {
	mu       sync.Mutex
	entries  map[entity.FetchKey][]entity.Candle
	ClearErr error
	Puts     int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[entity.FetchKey][]entity.Candle)}
}

func (c *mapCache) Get(_ context.Context, key entity.FetchKey) ([]entity.Candle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.entries[key]
	return slices.Clone(cs), ok
}

func (c *mapCache) Put(_ context.Context, key entity.FetchKey, candles []entity.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Puts++
	c.entries[key] = slices.Clone(candles)
}

func (c *mapCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ClearErr != nil {
		return c.ClearErr
	}
	clear(c.entries)
	return nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// mockCatalogSource はCatalogSourceインターフェースのモック実装です。
type mockCatalogSource struct {
	AccountsFunc    func(ctx context.Context) ([]entity.Account, error)
	InstrumentsFunc func(ctx context.Context, accountID string) ([]entity.Instrument, error)
	InstrumentsArg  string
}

func (m *mockCatalogSource) Accounts(ctx context.Context) ([]entity.Account, error) {
	return m.AccountsFunc(ctx)
}

func (m *mockCatalogSource) Instruments(ctx context.Context, accountID string) ([]entity.Instrument, error) {
	m.InstrumentsArg = accountID
	return m.InstrumentsFunc(ctx, accountID)
}
