package di

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fxchart_backend/internal/app/config"
	"fxchart_backend/internal/feature/marketdata/adapters"
	"fxchart_backend/internal/feature/marketdata/usecase"
	"fxchart_backend/internal/platform/db"
	"fxchart_backend/internal/shared/ratelimiter"
)

// NewArchive opens the database and returns the archive use case.
// It returns (nil, nil, nil) when no database is configured.
func NewArchive(cfg config.AppConfig, source usecase.CandleSource, logger *zap.Logger) (*usecase.ArchiveUsecase, *gorm.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, nil, nil
	}
	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	limiter := ratelimiter.NewRateLimiter(cfg.Archive.RateLimit, cfg.Archive.RateInterval)
	uc := usecase.NewArchiveUsecase(source, adapters.NewCandleArchive(gdb), limiter, logger)
	return uc, gdb, nil
}
