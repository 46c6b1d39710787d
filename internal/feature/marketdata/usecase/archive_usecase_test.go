package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/usecase"
)

// mockCandleSource はCandleSourceインターフェースのモック実装です。
type mockCandleSource struct {
	FetchFunc  func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
	FetchCalls int
}

func (m *mockCandleSource) FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	m.FetchCalls++
	return m.FetchFunc(ctx, instrument, granularity, count)
}

// mockArchive はCandleArchiveインターフェースのモック実装です。
type mockArchive struct {
	UpsertBatchFunc func(ctx context.Context, instrument, granularity string, candles []entity.Candle) error
	FindFunc        func(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error)
	Upserted        []string
}

func (m *mockArchive) UpsertBatch(ctx context.Context, instrument, granularity string, candles []entity.Candle) error {
	m.Upserted = append(m.Upserted, instrument+"/"+granularity)
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, instrument, granularity, candles)
	}
	return nil
}

func (m *mockArchive) Find(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, instrument, granularity, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

// countingLimiter はWaitの呼び出し回数を記録するリミッターです。
type countingLimiter struct {
	calls int
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls++
	return l.err
}

func TestArchiveUsecase_ArchiveAll(t *testing.T) {
	source := &mockCandleSource{
		FetchFunc: func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
			assert.Equal(t, 500, count)
			if instrument == "USD_JPY" && granularity == "D" {
				return nil, domain.ErrTimeout
			}
			return sampleCandles(1.0, 1.1), nil
		},
	}
	archive := &mockArchive{}
	limiter := &countingLimiter{}
	uc := usecase.NewArchiveUsecase(source, archive, limiter, nil)

	report, err := uc.ArchiveAll(context.Background(), []string{"EUR_USD", "USD_JPY"}, []string{"H1", "D"}, 500)

	require.NoError(t, err)
	assert.Equal(t, usecase.ArchiveReport{Succeeded: 3, Failed: 1}, report)
	assert.Equal(t, 4, limiter.calls)
	assert.Equal(t, 4, source.FetchCalls)
	assert.Equal(t, []string{"EUR_USD/H1", "EUR_USD/D", "USD_JPY/H1"}, archive.Upserted)
}

func TestArchiveUsecase_ArchiveAll_UpsertFailure(t *testing.T) {
	source := &mockCandleSource{
		FetchFunc: func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
			return sampleCandles(1.0), nil
		},
	}
	archive := &mockArchive{
		UpsertBatchFunc: func(ctx context.Context, instrument, granularity string, candles []entity.Candle) error {
			return errors.New("db error")
		},
	}
	uc := usecase.NewArchiveUsecase(source, archive, &countingLimiter{}, nil)

	report, err := uc.ArchiveAll(context.Background(), []string{"EUR_USD"}, []string{"H1"}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Succeeded)
}

func TestArchiveUsecase_ArchiveAll_LimiterCancelled(t *testing.T) {
	source := &mockCandleSource{}
	limiter := &countingLimiter{err: context.Canceled}
	uc := usecase.NewArchiveUsecase(source, &mockArchive{}, limiter, nil)

	_, err := uc.ArchiveAll(context.Background(), []string{"EUR_USD"}, []string{"H1"}, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, source.FetchCalls)
}

func TestArchiveUsecase_FindArchived(t *testing.T) {
	testCases := []struct {
		name            string
		granularity     string
		limit           int
		wantGranularity string
		wantLimit       int
	}{
		{name: "explicit values", granularity: "M5", limit: 50, wantGranularity: "M5", wantLimit: 50},
		{name: "defaults", granularity: "", limit: 0, wantGranularity: usecase.DefaultGranularity, wantLimit: usecase.DefaultCount},
		{name: "limit above maximum", granularity: "D", limit: usecase.MaxCount + 1, wantGranularity: "D", wantLimit: usecase.DefaultCount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			archive := &mockArchive{
				FindFunc: func(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
					assert.Equal(t, "EUR_USD", instrument)
					assert.Equal(t, tc.wantGranularity, granularity)
					assert.Equal(t, tc.wantLimit, limit)
					return sampleCandles(1.0), nil
				},
			}
			uc := usecase.NewArchiveUsecase(&mockCandleSource{}, archive, &countingLimiter{}, nil)

			cs, err := uc.FindArchived(context.Background(), "EUR_USD", tc.granularity, tc.limit)

			require.NoError(t, err)
			assert.Len(t, cs, 1)
		})
	}
}
