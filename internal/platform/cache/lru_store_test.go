package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

func TestNewLRUStore_InvalidSize(t *testing.T) {
	_, err := NewLRUStore(0)
	assert.Error(t, err)
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s, err := NewLRUStore(2)
	require.NoError(t, err)

	k1 := entity.FetchKey{Instrument: "EUR_USD", Granularity: "H1", Count: 2}
	k2 := entity.FetchKey{Instrument: "USD_JPY", Granularity: "H1", Count: 2}
	k3 := entity.FetchKey{Instrument: "GBP_USD", Granularity: "H1", Count: 2}

	require.NoError(t, s.Put(ctx, k1, candles()))
	require.NoError(t, s.Put(ctx, k2, candles()))

	// k1 を参照して最近使用扱いにする
	_, ok, _ := s.Get(ctx, k1)
	require.True(t, ok)

	require.NoError(t, s.Put(ctx, k3, candles()))

	_, ok, _ = s.Get(ctx, k2)
	assert.False(t, ok, "k2 should be evicted")
	_, ok, _ = s.Get(ctx, k1)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestLRUStore_CopyAndClear(t *testing.T) {
	ctx := context.Background()
	s, err := NewLRUStore(4)
	require.NoError(t, err)

	in := candles()
	require.NoError(t, s.Put(ctx, key, in))
	in[0].Close = 99

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.15, got[0].Close)

	got[1].Close = 42
	again, _, _ := s.Get(ctx, key)
	assert.Equal(t, 1.2, again[1].Close)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestMarketDataCache_WithLRUStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewLRUStore(1)
	require.NoError(t, err)
	c := New(s)

	other := entity.FetchKey{Instrument: "USD_JPY", Granularity: "D", Count: 2}
	c.Put(ctx, key, candles())
	c.Put(ctx, other, candles())

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, other)
	assert.True(t, ok)
}
