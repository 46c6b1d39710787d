// Package router assembles the gin engine and its route table.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	assistanthandler "fxchart_backend/internal/feature/assistant/transport/handler"
	marketdatahandler "fxchart_backend/internal/feature/marketdata/transport/handler"
	"fxchart_backend/internal/platform/http/handler"
	"fxchart_backend/internal/platform/http/middleware"
	jwtmw "fxchart_backend/internal/platform/jwt"
	"fxchart_backend/internal/platform/metrics"
)

// Options carries everything the route table depends on.
// Assistant is nil when the chart assistant is not configured.
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	JWTSecret      string
	AllowedOrigins []string

	Health     *handler.HealthHandler
	MarketData *marketdatahandler.MarketDataHandler
	Assistant  *assistanthandler.AssistantHandler
}

func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(opts.AllowedOrigins))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", opts.Health.Health)
	r.HEAD("/healthz", opts.Health.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// JWT_SECRET が設定されていれば /api 以下は認証必須
	api := r.Group("/api")
	if opts.JWTSecret != "" {
		api.Use(jwtmw.AuthRequired(opts.JWTSecret))
	} else {
		logger.Warn("JWT_SECRET is not set; /api is unauthenticated")
	}
	{
		md := opts.MarketData
		api.GET("/candles/:instrument", md.GetCandles)
		api.GET("/price/:instrument", md.GetPrice)
		api.GET("/instruments", md.SearchInstruments)
		api.GET("/instruments/:name", md.GetInstrument)
		api.POST("/cache/clear", md.ClearCache)
		api.GET("/archive/:instrument", md.GetArchived)

		if opts.Assistant != nil {
			api.POST("/chat", opts.Assistant.Chat)
		}
	}

	return r
}
