package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/app/di"
	"fxchart_backend/internal/app/router"
	assistanthandler "fxchart_backend/internal/feature/assistant/transport/handler"
	marketdatahandler "fxchart_backend/internal/feature/marketdata/transport/handler"
	"fxchart_backend/internal/platform/http/handler"
	"fxchart_backend/internal/platform/logger"
	"fxchart_backend/internal/platform/metrics"
	"fxchart_backend/internal/platform/trace"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := trace.Init(ctx, cfg.Tracing.Enabled, version)
	if err != nil {
		lg.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			lg.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	m := metrics.New(cfg.Metrics.Namespace)

	// Provider + cache
	provider := di.NewProvider(cfg.Provider, m, lg)
	candleCache, rdb := di.NewCandleCache(ctx, cfg, m, lg)
	checks := map[string]handler.Check{}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				lg.Error("failed to close redis client", zap.Error(err))
			}
		}()
		checks["redis"] = func() error { return rdb.Ping(context.Background()).Err() }
	}

	// 銘柄カタログの構築に失敗したら起動しない
	marketData, err := di.NewMarketData(ctx, provider, candleCache, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", zap.Error(err))
	}

	// Archive (optional)
	var archive marketdatahandler.ArchiveReader
	archiveUC, gdb, err := di.NewArchive(cfg, marketData, lg)
	if err != nil {
		lg.Fatal("open archive database", zap.Error(err))
	}
	if archiveUC != nil {
		archive = archiveUC
		sqlDB, err := gdb.DB()
		if err == nil {
			defer func() { _ = sqlDB.Close() }()
			checks["database"] = sqlDB.Ping
		}
	}

	// Assistant (optional)
	var assistantH *assistanthandler.AssistantHandler
	assistantUC, err := di.NewAssistant(ctx, cfg.Assistant, lg)
	if err != nil {
		lg.Fatal("init assistant", zap.Error(err))
	}
	if assistantUC != nil {
		assistantH = assistanthandler.NewAssistantHandler(assistantUC)
	}

	engine := router.NewRouter(router.Options{
		Logger:         lg,
		Metrics:        m,
		JWTSecret:      cfg.Server.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         handler.NewHealthHandler(version, checks),
		MarketData:     marketdatahandler.NewMarketDataHandler(marketData, archive, lg),
		Assistant:      assistantH,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
