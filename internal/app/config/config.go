// Package config loads the service configuration: YAML file, then environment overrides, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fxchart_backend/internal/feature/assistant/adapters/gemini"
	"fxchart_backend/internal/feature/marketdata/adapters/oanda"
	"fxchart_backend/internal/platform/db"
	"fxchart_backend/internal/platform/logger"
	"fxchart_backend/internal/platform/redis"
)

// EnvConfigPath names the environment variable holding the YAML file path.
const EnvConfigPath = "CONFIG_PATH"

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Server    ServerConfig  `yaml:"server"`
	Provider  oanda.Config  `yaml:"provider"`
	Cache     CacheConfig   `yaml:"cache"`
	Redis     redis.Config  `yaml:"redis"`
	Database  db.Config     `yaml:"database"`
	Assistant gemini.Config `yaml:"assistant"`
	Archive   ArchiveConfig `yaml:"archive"`
	Log       logger.Config `yaml:"log"`
	Tracing   TracingConfig `yaml:"tracing"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

type CacheConfig struct {
	Backend    string `yaml:"backend"`     // memory or redis
	Namespace  string `yaml:"namespace"`   // redis key prefix
	Coalesce   bool   `yaml:"coalesce"`    // deduplicate concurrent misses per key
	MaxEntries int    `yaml:"max_entries"` // memory backend only; 0 keeps every series
}

type ArchiveConfig struct {
	Instruments   []string      `yaml:"instruments"`
	Granularities []string      `yaml:"granularities"`
	Count         int           `yaml:"count"`
	RateLimit     int           `yaml:"rate_limit"`    // provider calls per interval
	RateInterval  time.Duration `yaml:"rate_interval"` // window for rate_limit
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
		},
		Provider: oanda.Config{}.WithDefaults(),
		Cache:    CacheConfig{Backend: "memory", Namespace: "candles"},
		Database: db.Config{Driver: db.DriverPostgres, ConnectTimeout: 60 * time.Second},
		Archive: ArchiveConfig{
			Instruments:   []string{"EUR_USD", "USD_JPY", "GBP_USD"},
			Granularities: []string{"H1", "D"},
			Count:         500,
			RateLimit:     8,
			RateInterval:  time.Minute,
		},
		Log:     logger.DefaultConfig(),
		Metrics: MetricsConfig{Namespace: "fxchart"},
	}
}

// Load reads .env, the optional YAML file named by CONFIG_PATH, environment overrides, and validates.
func Load() (AppConfig, error) {
	// .envがなくてもエラーにしない
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Provider = cfg.Provider.WithDefaults()
	return cfg, cfg.Validate()
}

// LoadFile decodes the YAML file at path over cfg.
func LoadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
func ApplyEnv(cfg *AppConfig) error {
	setString(&cfg.Provider.APIKey, "OANDA_API_KEY")
	setString(&cfg.Provider.BaseURL, "OANDA_BASE_URL")
	setString(&cfg.Assistant.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Server.JWTSecret, "JWT_SECRET")
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setString(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_DSN")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Cache.Backend, "CACHE_BACKEND")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = b
	}
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_MIGRATIONS: %w", err)
		}
		cfg.Database.RunMigrations = b
	}
	return nil
}

// Validate ensures required fields are present and consistent.
func (c AppConfig) Validate() error {
	var errs []error
	if err := c.Provider.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("cache.backend is redis but redis.host is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	for _, o := range c.Server.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("server.allowed_origins: %q must be \"*\" or start with http:// or https://", o))
		}
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("cache.max_entries must be >= 0"))
	}
	if c.Archive.Count <= 0 {
		errs = append(errs, errors.New("archive.count must be > 0"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
