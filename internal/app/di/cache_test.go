package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/platform/cache"
)

func TestNewMemoryStore(t *testing.T) {
	assert.IsType(t, &cache.MemoryStore{}, newMemoryStore(0, zap.NewNop()))
	assert.IsType(t, &cache.LRUStore{}, newMemoryStore(16, zap.NewNop()))
}

func TestNewCandleCache_MemoryBackend(t *testing.T) {
	cfg := config.Default()

	c, rdb := NewCandleCache(context.Background(), cfg, nil, zap.NewNop())

	assert.NotNil(t, c)
	assert.Nil(t, rdb)
}
