package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxchart_backend/internal/feature/marketdata/domain"
	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/transport/handler"
)

// mockMarketDataUsecase はMarketDataUsecaseインターフェースのモック実装です。
type mockMarketDataUsecase struct {
	FetchCandlesFunc    func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
	FetchPriceDeltaFunc func(ctx context.Context, instrument string) (entity.PriceDelta, error)
	SearchFunc          func(query, category string) []string
	InstrumentFunc      func(name string) (entity.Instrument, error)
	ClearCacheFunc      func(ctx context.Context) error
	ClearCalls          int
}

func (m *mockMarketDataUsecase) FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
	return m.FetchCandlesFunc(ctx, instrument, granularity, count)
}

func (m *mockMarketDataUsecase) FetchPriceDelta(ctx context.Context, instrument string) (entity.PriceDelta, error) {
	return m.FetchPriceDeltaFunc(ctx, instrument)
}

func (m *mockMarketDataUsecase) SearchInstruments(query, category string) []string {
	return m.SearchFunc(query, category)
}

func (m *mockMarketDataUsecase) Instrument(name string) (entity.Instrument, error) {
	return m.InstrumentFunc(name)
}

func (m *mockMarketDataUsecase) ClearCache(ctx context.Context) error {
	m.ClearCalls++
	if m.ClearCacheFunc != nil {
		return m.ClearCacheFunc(ctx)
	}
	return nil
}

// mockArchiveReader はArchiveReaderインターフェースのモック実装です。
type mockArchiveReader struct {
	FindArchivedFunc func(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error)
}

func (m *mockArchiveReader) FindArchived(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
	return m.FindArchivedFunc(ctx, instrument, granularity, limit)
}

func setupRouter(uc handler.MarketDataUsecase, archive handler.ArchiveReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewMarketDataHandler(uc, archive, nil)
	r := gin.New()
	r.GET("/api/candles/:instrument", h.GetCandles)
	r.GET("/api/price/:instrument", h.GetPrice)
	r.GET("/api/instruments", h.SearchInstruments)
	r.GET("/api/instruments/:name", h.GetInstrument)
	r.POST("/api/cache/clear", h.ClearCache)
	r.GET("/api/archive/:instrument", h.GetArchived)
	return r
}

func do(r *gin.Engine, method, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, url, nil))
	return w
}

// TestMarketDataHandler_GetCandles はGetCandlesのHTTPリクエスト/レスポンス処理をテストします。
func TestMarketDataHandler_GetCandles(t *testing.T) {
	testTime := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		url             string
		wantGranularity string
		wantCount       int
		expectedStatus  int
		expectedBody    string
	}{
		{
			name:            "success: all parameters specified",
			url:             "/api/candles/EUR_USD?granularity=M5&count=10",
			wantGranularity: "M5",
			wantCount:       10,
			expectedStatus:  http.StatusOK,
			expectedBody:    `[{"time":"2024-01-01T09:00:00Z","open":1.1,"high":1.2,"low":1,"close":1.15,"volume":42}]`,
		},
		{
			name:            "success: default parameter values",
			url:             "/api/candles/EUR_USD",
			wantGranularity: "H1",
			wantCount:       1000,
			expectedStatus:  http.StatusOK,
		},
		{
			name:            "edge case: invalid count uses default value",
			url:             "/api/candles/EUR_USD?count=invalid",
			wantGranularity: "H1",
			wantCount:       1000,
			expectedStatus:  http.StatusOK,
		},
		{
			name:            "edge case: count above maximum uses default value",
			url:             "/api/candles/EUR_USD?count=5001",
			wantGranularity: "H1",
			wantCount:       1000,
			expectedStatus:  http.StatusOK,
		},
		{
			name:            "edge case: maximum count is accepted",
			url:             "/api/candles/EUR_USD?count=5000",
			wantGranularity: "H1",
			wantCount:       5000,
			expectedStatus:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockMarketDataUsecase{
				FetchCandlesFunc: func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
					assert.Equal(t, "EUR_USD", instrument)
					assert.Equal(t, tt.wantGranularity, granularity)
					assert.Equal(t, tt.wantCount, count)
					return []entity.Candle{{Time: testTime, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 42}}, nil
				},
			}

			w := do(setupRouter(uc, nil), http.MethodGet, tt.url)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				body, _ := io.ReadAll(w.Body)
				assert.JSONEq(t, tt.expectedBody, string(body))
			}
		})
	}
}

// TestMarketDataHandler_ErrorMapping はユースケースのエラーがHTTPステータスに変換されることを検証します。
func TestMarketDataHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"invalid credentials", fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrAuthentication), http.StatusUnauthorized},
		{"provider error", &domain.ProviderError{StatusCode: 500, Body: "oops"}, http.StatusBadGateway},
		{"timeout", fmt.Errorf("%w: deadline", domain.ErrTimeout), http.StatusGatewayTimeout},
		{"network", domain.ErrNetwork, http.StatusBadGateway},
		{"parse", domain.ErrParse, http.StatusBadGateway},
		{"insufficient data", domain.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"division", domain.ErrDivision, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockMarketDataUsecase{
				FetchCandlesFunc: func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
					return nil, tt.err
				},
				FetchPriceDeltaFunc: func(ctx context.Context, instrument string) (entity.PriceDelta, error) {
					return entity.PriceDelta{}, tt.err
				},
			}
			r := setupRouter(uc, nil)

			for _, url := range []string{"/api/candles/EUR_USD", "/api/price/EUR_USD"} {
				w := do(r, http.MethodGet, url)
				assert.Equal(t, tt.expectedStatus, w.Code, url)

				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestMarketDataHandler_ProviderStatusInBody(t *testing.T) {
	uc := &mockMarketDataUsecase{
		FetchCandlesFunc: func(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error) {
			return nil, &domain.ProviderError{StatusCode: 503, Body: "maintenance"}
		},
	}

	w := do(setupRouter(uc, nil), http.MethodGet, "/api/candles/EUR_USD")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"provider error","providerStatus":503}`, w.Body.String())
}

func TestMarketDataHandler_GetPrice(t *testing.T) {
	uc := &mockMarketDataUsecase{
		FetchPriceDeltaFunc: func(ctx context.Context, instrument string) (entity.PriceDelta, error) {
			assert.Equal(t, "USD_JPY", instrument)
			return entity.PriceDelta{Price: 151.25, Change: -0.5}, nil
		},
	}

	w := do(setupRouter(uc, nil), http.MethodGet, "/api/price/USD_JPY")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"instrument":"USD_JPY","price":151.25,"change":-0.5}`, w.Body.String())
}

func TestMarketDataHandler_SearchInstruments(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantQuery    string
		wantCategory string
	}{
		{"query is upper-cased", "/api/instruments?query=eur&category=currency", "EUR", "currency"},
		{"defaults", "/api/instruments", "", "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockMarketDataUsecase{
				SearchFunc: func(query, category string) []string {
					assert.Equal(t, tt.wantQuery, query)
					assert.Equal(t, tt.wantCategory, category)
					return []string{"EUR_USD", "EUR_GBP"}
				},
			}

			w := do(setupRouter(uc, nil), http.MethodGet, tt.url)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `["EUR_USD","EUR_GBP"]`, w.Body.String())
		})
	}
}

func TestMarketDataHandler_SearchInstruments_Empty(t *testing.T) {
	uc := &mockMarketDataUsecase{
		SearchFunc: func(query, category string) []string { return []string{} },
	}

	w := do(setupRouter(uc, nil), http.MethodGet, "/api/instruments?query=zzz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[]`, w.Body.String())
}

func TestMarketDataHandler_GetInstrument(t *testing.T) {
	uc := &mockMarketDataUsecase{
		InstrumentFunc: func(name string) (entity.Instrument, error) {
			if name == "EUR_USD" {
				return entity.Instrument{Name: "EUR_USD", Type: "CURRENCY", DisplayName: "EUR/USD", Metadata: json.RawMessage(`{"pipLocation":-4}`)}, nil
			}
			return entity.Instrument{}, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, name)
		},
	}
	r := setupRouter(uc, nil)

	w := do(r, http.MethodGet, "/api/instruments/EUR_USD")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"EUR_USD","type":"CURRENCY","displayName":"EUR/USD","metadata":{"pipLocation":-4}}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/instruments/NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarketDataHandler_ClearCache(t *testing.T) {
	uc := &mockMarketDataUsecase{}
	r := setupRouter(uc, nil)

	w := do(r, http.MethodPost, "/api/cache/clear")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, uc.ClearCalls)

	uc.ClearCacheFunc = func(ctx context.Context) error { return errors.New("redis down") }
	w = do(r, http.MethodPost, "/api/cache/clear")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMarketDataHandler_GetArchived(t *testing.T) {
	testTime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	archive := &mockArchiveReader{
		FindArchivedFunc: func(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
			assert.Equal(t, "EUR_USD", instrument)
			assert.Equal(t, "D", granularity)
			assert.Equal(t, 30, limit)
			return []entity.Candle{{Time: testTime, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 9}}, nil
		},
	}

	w := do(setupRouter(&mockMarketDataUsecase{}, archive), http.MethodGet, "/api/archive/EUR_USD?granularity=D&count=30")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"time":"2024-03-01T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.5,"volume":9}]`, w.Body.String())
}

func TestMarketDataHandler_GetArchived_NotConfigured(t *testing.T) {
	w := do(setupRouter(&mockMarketDataUsecase{}, nil), http.MethodGet, "/api/archive/EUR_USD")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
