// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/feature/marketdata/transport/http/dto"
	"fxchart_backend/internal/feature/marketdata/usecase"
)

// MarketDataUsecase はマーケットデータ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketDataUsecase interface {
	FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
	FetchPriceDelta(ctx context.Context, instrument string) (entity.PriceDelta, error)
	SearchInstruments(query, category string) []string
	Instrument(name string) (entity.Instrument, error)
	ClearCache(ctx context.Context) error
}

// ArchiveReader は永続化済みのローソク足を読み出します。
type ArchiveReader interface {
	FindArchived(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error)
}

// MarketDataHandler はマーケットデータのHTTPリクエストを処理します。
type MarketDataHandler struct {
	uc      MarketDataUsecase
	archive ArchiveReader
	logger  *zap.Logger
}

// NewMarketDataHandler は新しいMarketDataHandlerを生成します。DB未設定時はarchiveにnilを渡します。
func NewMarketDataHandler(uc MarketDataUsecase, archive ArchiveReader, logger *zap.Logger) *MarketDataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketDataHandler{uc: uc, archive: archive, logger: logger}
}

// GetCandles はローソク足データをJSONで返します。
//
// エンドポイント例:
// GET /api/candles/:instrument?granularity=H1&count=1000
func (h *MarketDataHandler) GetCandles(c *gin.Context) {
	instrument := instrumentParam(c)
	granularity := c.DefaultQuery("granularity", usecase.DefaultGranularity)
	count := parseCount(c.Query("count"))

	candles, err := h.uc.FetchCandles(c.Request.Context(), instrument, granularity, count)
	if err != nil {
		h.fail(c, "fetch candles", err, zap.String("instrument", instrument), zap.String("granularity", granularity))
		return
	}
	c.JSON(http.StatusOK, toCandleResponses(candles))
}

// GetPrice は最新価格と前回終値からの変化率を返します。
//
// エンドポイント例:
// GET /api/price/:instrument
func (h *MarketDataHandler) GetPrice(c *gin.Context) {
	instrument := instrumentParam(c)

	pd, err := h.uc.FetchPriceDelta(c.Request.Context(), instrument)
	if err != nil {
		h.fail(c, "fetch price", err, zap.String("instrument", instrument))
		return
	}
	c.JSON(http.StatusOK, dto.PriceResponse{Instrument: instrument, Price: pd.Price, Change: pd.Change})
}

// SearchInstruments は銘柄名の部分一致検索を行います。queryは大文字に変換されます。
//
// エンドポイント例:
// GET /api/instruments?query=eur&category=currency
func (h *MarketDataHandler) SearchInstruments(c *gin.Context) {
	query := strings.ToUpper(c.Query("query"))
	category := c.DefaultQuery("category", usecase.CategoryAll)

	c.JSON(http.StatusOK, h.uc.SearchInstruments(query, category))
}

// GetInstrument は銘柄カタログの1件を返します。
func (h *MarketDataHandler) GetInstrument(c *gin.Context) {
	inst, err := h.uc.Instrument(c.Param("name"))
	if err != nil {
		h.fail(c, "lookup instrument", err)
		return
	}
	c.JSON(http.StatusOK, dto.InstrumentResponse{
		Name:        inst.Name,
		Type:        inst.Type,
		DisplayName: inst.DisplayName,
		Metadata:    inst.Metadata,
	})
}

// ClearCache はキャッシュ済みのローソク足をすべて削除します。
func (h *MarketDataHandler) ClearCache(c *gin.Context) {
	if err := h.uc.ClearCache(c.Request.Context()); err != nil {
		h.fail(c, "clear cache", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// GetArchived は永続化済みのローソク足を返します。
//
// エンドポイント例:
// GET /api/archive/:instrument?granularity=D&count=500
func (h *MarketDataHandler) GetArchived(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "archive is not configured"})
		return
	}
	instrument := instrumentParam(c)
	granularity := c.DefaultQuery("granularity", usecase.DefaultGranularity)
	count := parseCount(c.Query("count"))

	candles, err := h.archive.FindArchived(c.Request.Context(), instrument, granularity, count)
	if err != nil {
		h.logger.Error("find archived candles failed", zap.String("instrument", instrument), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "archive query failed"})
		return
	}
	c.JSON(http.StatusOK, toCandleResponses(candles))
}

func (h *MarketDataHandler) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	status, body := errorResponse(err)
	h.logger.Error(op+" failed", append(fields, zap.Int("status", status), zap.Error(err))...)
	_ = c.Error(err)
	c.JSON(status, body)
}

func instrumentParam(c *gin.Context) string {
	if v := c.Param("instrument"); v != "" {
		return v
	}
	return usecase.DefaultInstrument
}

// parseCount は未指定・不正・範囲外の値に対してデフォルト値を返します。
func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > usecase.MaxCount {
		return usecase.DefaultCount
	}
	return n
}

func toCandleResponses(candles []entity.Candle) []dto.CandleResponse {
	// データをフォーマット
	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:   x.Time.UTC().Format(time.RFC3339),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	return out
}
