package usecase

import (
	"context"
	"fmt"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

const (
	// DefaultInstrument は銘柄未指定時に使う銘柄です。
	DefaultInstrument = "EUR_USD"
	// DefaultGranularity はチャートのデフォルトの時間足です。
	DefaultGranularity = "H1"
	// DefaultCount は1リクエストあたりのデフォルトの本数です。
	DefaultCount = 1000
	// MaxCount はAPIの1リクエストあたりの上限本数です。
	MaxCount = 5000
)

// MarketData はHTTP層に公開する操作（ローソク足、価格変化率、銘柄検索、キャッシュ削除）をまとめます。
type MarketData struct {
	fetcher *Fetcher
	catalog *InstrumentCatalog
}

// NewMarketData はFetcherと銘柄カタログから新しいMarketDataを作成します。
func NewMarketData(fetcher *Fetcher, catalog *InstrumentCatalog) *MarketData {
	return &MarketData{fetcher: fetcher, catalog: catalog}
}

// FetchCandles はローソク足を返します（キャッシュ済みの場合あり）。
func (m *MarketData) FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	return m.fetcher.FetchCandles(ctx, instrument, granularity, count)
}

// FetchPriceDelta は最新の価格変化率を返します。
func (m *MarketData) FetchPriceDelta(ctx context.Context, instrument string) (entity.PriceDelta, error) {
	return m.fetcher.FetchPriceDelta(ctx, instrument)
}

// SearchInstruments は銘柄カタログを検索します。
func (m *MarketData) SearchInstruments(query, category string) []string {
	return m.catalog.Search(query, category)
}

// Instrument はnameに対応する銘柄を返します。
func (m *MarketData) Instrument(name string) (entity.Instrument, error) {
	inst, ok := m.catalog.Lookup(name)
	if !ok {
		return entity.Instrument{}, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, name)
	}
	return inst, nil
}

// ClearCache はキャッシュ済みのローソク足をすべて削除します。
func (m *MarketData) ClearCache(ctx context.Context) error {
	return m.fetcher.ClearCache(ctx)
}
