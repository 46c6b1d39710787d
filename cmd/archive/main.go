package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/app/di"
	"fxchart_backend/internal/platform/cache"
	"fxchart_backend/internal/platform/logger"
	"fxchart_backend/internal/platform/metrics"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the run")
	instruments := flag.String("instruments", "", "comma separated instruments (default: archive.instruments)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.Database.Enabled() {
		log.Fatal("DATABASE_DSN is not set")
	}
	if *instruments != "" {
		cfg.Archive.Instruments = strings.Split(*instruments, ",")
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// バッチでは共有キャッシュを使わずプロセス内メモリのみ
	provider := di.NewProvider(cfg.Provider, metrics.New(cfg.Metrics.Namespace), lg)
	fetcher := di.NewFetcher(provider, cache.New(nil, cache.WithLogger(lg)), cfg.Cache, lg)

	uc, gdb, err := di.NewArchive(cfg, fetcher, lg)
	if err != nil {
		lg.Fatal("open archive database", zap.Error(err))
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	report, err := uc.ArchiveAll(ctx, cfg.Archive.Instruments, cfg.Archive.Granularities, cfg.Archive.Count)
	if err != nil {
		lg.Fatal("archive run aborted", zap.Error(err))
	}
	lg.Info("archive ok", zap.Int("succeeded", report.Succeeded), zap.Int("failed", report.Failed))
}
