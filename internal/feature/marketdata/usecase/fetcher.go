// Package usecase はマーケットデータの取得・キャッシュ・銘柄カタログのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/platform/trace"
)

const (
	// PriceGranularity は価格変化率の算出に使う時間足です。
	PriceGranularity = "M1"
	// PriceCandleCount は価格変化率の算出に取得するローソク足の本数です。
	PriceCandleCount = 2
)

// MarketProvider は外部APIから正規化済みのローソク足を取得します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketProvider interface {
	// Candles はkeyの履歴をCandleTimeout内で取得します。
	Candles(ctx context.Context, key entity.FetchKey) ([]entity.Candle, error)
	// LatestCandles は直近のローソク足をより短いPriceTimeout内で取得します。
	LatestCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
}

// CandleCache はFetchKeyごとにローソク足を保持します。
type CandleCache interface {
	Get(ctx context.Context, key entity.FetchKey) ([]entity.Candle, bool)
	Put(ctx context.Context, key entity.FetchKey, candles []entity.Candle)
	Clear(ctx context.Context) error
}

// Fetcher はローソク足をキャッシュ経由で、価格変化率を外部APIから直接返します。
// 並行に呼び出して安全です。APIの呼び出しはキャッシュのロック外で行うため、同じキーで同時に
// ミスした場合はどちらもAPIを呼び出し、後からPutした方が残ります（WithCoalescing指定時を除く）。
type Fetcher struct {
	provider MarketProvider
	cache    CandleCache
	logger   *zap.Logger
	group    *singleflight.Group
}

// FetcherOption はFetcherの設定を変更します。
type FetcherOption func(*Fetcher)

// WithLogger はFetcherのロガーを設定します。
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithCoalescing は同じFetchKeyへの同時ミスをまとめ、キーごとにAPI呼び出しを1つに抑えます。
func WithCoalescing() FetcherOption {
	return func(f *Fetcher) {
		f.group = &singleflight.Group{}
	}
}

// NewFetcher は指定されたproviderとcacheで新しいFetcherを作成します。
func NewFetcher(provider MarketProvider, cache CandleCache, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		provider: provider,
		cache:    cache,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchCandles は指定された銘柄と時間足のローソク足をcount本、古い順に返します。
// キャッシュヒット時は鮮度を確認せずにそのまま返します。
func (f *Fetcher) FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.FetchCandles")
	defer span.End()

	key := entity.FetchKey{Instrument: instrument, Granularity: granularity, Count: count}

	if cs, ok := f.cache.Get(ctx, key); ok {
		f.logger.Debug("returning cached candles", zap.String("key", cacheKeyString(key)), zap.Int("count", len(cs)))
		return cs, nil
	}

	var (
		cs  []entity.Candle
		err error
	)
	if f.group != nil {
		// 共有ロードは先頭の呼び出し元のキャンセルに巻き込まれないようにする。
		// 打ち切りはプロバイダ側のタイムアウトに任せる。
		shareCtx := context.WithoutCancel(ctx)
		v, gerr, shared := f.group.Do(cacheKeyString(key), func() (any, error) {
			return f.load(shareCtx, key)
		})
		err = gerr
		if gerr == nil {
			cs = v.([]entity.Candle)
			if shared {
				cs = slices.Clone(cs)
			}
		}
	} else {
		cs, err = f.load(ctx, key)
	}
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}
	return cs, nil
}

// load はAPIを呼び出し、結果をキャッシュに保存します。失敗はキャッシュしません。
func (f *Fetcher) load(ctx context.Context, key entity.FetchKey) ([]entity.Candle, error) {
	f.logger.Info("fetching candles",
		zap.String("instrument", key.Instrument),
		zap.String("granularity", key.Granularity),
		zap.Int("count", key.Count),
	)

	cs, err := f.provider.Candles(ctx, key)
	if err != nil {
		f.logger.Error("candle fetch failed", zap.String("key", cacheKeyString(key)), zap.Error(err))
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
		}
		return nil, err
	}

	f.cache.Put(ctx, key, cs)
	f.logger.Info("processed candles", zap.String("key", cacheKeyString(key)), zap.Int("candles", len(cs)))
	return cs, nil
}

// FetchPriceDelta は最新の1分足終値と、前回終値からの変化率を返します。常にAPIを呼び出します。
func (f *Fetcher) FetchPriceDelta(ctx context.Context, instrument string) (entity.PriceDelta, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.FetchPriceDelta")
	defer span.End()

	cs, err := f.provider.LatestCandles(ctx, instrument, PriceGranularity, PriceCandleCount)
	if err != nil {
		f.logger.Error("price fetch failed", zap.String("instrument", instrument), zap.Error(err))
		trace.RecordError(span, err)
		return entity.PriceDelta{}, err
	}
	if len(cs) < 2 {
		err := fmt.Errorf("%w: got %d candles for %s", domain.ErrInsufficientData, len(cs), instrument)
		trace.RecordError(span, err)
		return entity.PriceDelta{}, err
	}

	latest := cs[len(cs)-1].Close
	previous := cs[len(cs)-2].Close

	change, err := percentChange(previous, latest)
	if err != nil {
		trace.RecordError(span, err)
		return entity.PriceDelta{}, fmt.Errorf("%s: %w", instrument, err)
	}
	return entity.PriceDelta{Price: latest, Change: change}, nil
}

// ClearCache はキャッシュ済みのローソク足をすべて削除します。
func (f *Fetcher) ClearCache(ctx context.Context) error {
	if err := f.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	f.logger.Info("candle cache cleared")
	return nil
}

// percentChange は (latest - previous) / previous * 100 を10進演算で計算します。
func percentChange(previous, latest float64) (float64, error) {
	if !isFinite(previous) || !isFinite(latest) {
		return 0, fmt.Errorf("%w: non-finite close", domain.ErrParse)
	}
	p := decimal.NewFromFloat(previous)
	if p.IsZero() {
		return 0, domain.ErrDivision
	}
	l := decimal.NewFromFloat(latest)
	change, _ := l.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Float64()
	return change, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cacheKeyString(k entity.FetchKey) string {
	return k.Instrument + "_" + k.Granularity + "_" + strconv.Itoa(k.Count)
}
