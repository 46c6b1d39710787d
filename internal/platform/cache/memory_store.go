package cache

import (
	"context"
	"slices"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// MemoryStore keeps entries in a map. It does no locking of its own; MarketDataCache holds
// the lock around every call.
type MemoryStore struct {
	entries map[entity.FetchKey][]entity.Candle
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entity.FetchKey][]entity.Candle)}
}

// Get returns a copy so callers cannot mutate the stored series.
func (s *MemoryStore) Get(_ context.Context, key entity.FetchKey) ([]entity.Candle, bool, error) {
	cs, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(cs), true, nil
}

func (s *MemoryStore) Put(_ context.Context, key entity.FetchKey, candles []entity.Candle) error {
	s.entries[key] = slices.Clone(candles)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	clear(s.entries)
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	return len(s.entries)
}
