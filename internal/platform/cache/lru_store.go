package cache

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// LRUStore is a bounded in-process store. When full, the least recently used series is
// evicted on Put.
type LRUStore struct {
	entries *lru.Cache[entity.FetchKey, []entity.Candle]
}

// NewLRUStore creates a store holding at most size series.
func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New[entity.FetchKey, []entity.Candle](size)
	if err != nil {
		return nil, fmt.Errorf("lru store: %w", err)
	}
	return &LRUStore{entries: c}, nil
}

func (s *LRUStore) Get(_ context.Context, key entity.FetchKey) ([]entity.Candle, bool, error) {
	cs, ok := s.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(cs), true, nil
}

func (s *LRUStore) Put(_ context.Context, key entity.FetchKey, candles []entity.Candle) error {
	s.entries.Add(key, slices.Clone(candles))
	return nil
}

func (s *LRUStore) Clear(context.Context) error {
	s.entries.Purge()
	return nil
}

// Len returns the number of entries.
func (s *LRUStore) Len() int {
	return s.entries.Len()
}
