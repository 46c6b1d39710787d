// Package db opens the gorm connection used by the candle archive.
package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fxchart_backend/internal/feature/marketdata/adapters"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval is the pause between failed connection attempts.
var retryInterval = 3 * time.Second

// Config selects the driver and DSN. An empty DSN disables the archive.
type Config struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RunMigrations  bool          `yaml:"run_migrations"`
}

// Enabled reports whether a database is configured.
func (c Config) Enabled() bool {
	return c.DSN != ""
}

// Opener opens a gorm DB for a DSN. Swapped in tests.
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor returns the gorm opener for driver.
func OpenerFor(driver string) (Opener, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	switch strings.ToLower(driver) {
	case "", DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gcfg)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		logger.Warn("db connect failed, retrying", zap.Error(err), zap.Duration("retry_in", retryInterval))
		time.Sleep(retryInterval)
	}
}

// Describe returns a loggable form of a postgres DSN without the password.
func Describe(driver, dsn string) string {
	if !strings.EqualFold(driver, DriverSQLite) {
		pc, err := pgconn.ParseConfig(dsn)
		if err != nil {
			return "postgres (unparsable dsn)"
		}
		return fmt.Sprintf("postgres://%s@%s:%d/%s", pc.User, pc.Host, pc.Port, pc.Database)
	}
	return "sqlite:" + dsn
}

// Open connects to the configured database and migrates the archive table when asked to.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		return nil, errors.New("database dsn is not set")
	}
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	db, err := ConnectWithRetry(cfg.DSN, timeout, open, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", zap.String("target", Describe(cfg.Driver, cfg.DSN)))

	if strings.EqualFold(cfg.Driver, DriverSQLite) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLiteは単一ライター
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.RunMigrations {
		// マイグレーション（Candle）
		if err := db.AutoMigrate(&adapters.CandleModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
