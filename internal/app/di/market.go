// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/feature/marketdata/adapters/oanda"
	"fxchart_backend/internal/feature/marketdata/usecase"
	infrahttp "fxchart_backend/internal/platform/http"
	"fxchart_backend/internal/platform/metrics"
)

// NewProvider creates a fully configured OANDA client with an instrumented HTTP client.
func NewProvider(cfg oanda.Config, m *metrics.Metrics, logger *zap.Logger) *oanda.Client {
	cfg = cfg.WithDefaults()
	httpClient := infrahttp.NewHTTPClient(cfg.MaxTimeout())
	return oanda.NewClient(cfg, httpClient, oanda.WithMetrics(m), oanda.WithLogger(logger))
}

// NewFetcher wires a provider and a cache into a Fetcher.
func NewFetcher(provider usecase.MarketProvider, cache usecase.CandleCache, cfg config.CacheConfig, logger *zap.Logger) *usecase.Fetcher {
	opts := []usecase.FetcherOption{usecase.WithLogger(logger)}
	if cfg.Coalesce {
		opts = append(opts, usecase.WithCoalescing())
	}
	return usecase.NewFetcher(provider, cache, opts...)
}

// NewMarketData builds the instrument catalog and the market data boundary.
// A catalog failure is returned to the caller, which treats it as fatal.
func NewMarketData(ctx context.Context, provider *oanda.Client, cache usecase.CandleCache, cfg config.AppConfig, logger *zap.Logger) (*usecase.MarketData, error) {
	catalog, err := usecase.NewInstrumentCatalog(ctx, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("build instrument catalog: %w", err)
	}
	fetcher := NewFetcher(provider, cache, cfg.Cache, logger)
	return usecase.NewMarketData(fetcher, catalog), nil
}
