package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port string

	// Database connection. DBDriver is one of "sqlite", "pgx" or "memory".
	DBDriver       string
	DBDSN          string
	DBMaxOpenConns int
	DBQueryTimeout time.Duration
	DBWriteTimeout time.Duration
	DBMaxRetries   int
	DBAutoMigrate  bool

	// ImportDir is scanned for CSV exports every ImportInterval (empty = disabled).
	ImportDir      string
	ImportInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	CORSAllowedOrigins string
	LogLevel           string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:energy.db")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_query_timeout", "5s")
	v.SetDefault("db_write_timeout", "60s")
	v.SetDefault("db_max_retries", 2)
	v.SetDefault("db_auto_migrate", true)

	v.SetDefault("import_dir", "")
	v.SetDefault("import_interval", "15m")

	v.SetDefault("http_read_timeout", "10s")
	v.SetDefault("http_write_timeout", "10s")

	v.SetDefault("cors_allowed_origins", "http://localhost:5173")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Info().Err(err).Msg("no .env file loaded")
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &AppConfig{
		Port:               v.GetString("port"),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		DBDSN:              v.GetString("db_dsn"),
		ImportDir:          v.GetString("import_dir"),
		CORSAllowedOrigins: v.GetString("cors_allowed_origins"),
		LogLevel:           v.GetString("log_level"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"db_max_open_conns", &cfg.DBMaxOpenConns},
		{"db_max_retries", &cfg.DBMaxRetries},
	}
	for _, i := range ints {
		n, err := cast.ToIntE(v.Get(i.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", strings.ToUpper(i.key), err)
		}
		*i.dst = n
	}

	migrate, err := cast.ToBoolE(v.Get("db_auto_migrate"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}
	cfg.DBAutoMigrate = migrate

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"db_query_timeout", &cfg.DBQueryTimeout},
		{"db_write_timeout", &cfg.DBWriteTimeout},
		{"import_interval", &cfg.ImportInterval},
		{"http_read_timeout", &cfg.HTTPReadTimeout},
		{"http_write_timeout", &cfg.HTTPWriteTimeout},
	}
	for _, d := range durations {
		raw := v.GetString(d.key)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", strings.ToUpper(d.key), err)
		}
		*d.dst = parsed
	}

	if cfg.DBMaxOpenConns < 0 {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: must not be negative")
	}
	if cfg.DBMaxRetries < 0 {
		return nil, fmt.Errorf("invalid DB_MAX_RETRIES: must not be negative")
	}
	if cfg.ImportDir != "" && cfg.ImportInterval <= 0 {
		return nil, fmt.Errorf("invalid IMPORT_INTERVAL: must be positive when IMPORT_DIR is set")
	}

	return cfg, nil
}

// CreateLogger builds the process logger for the configured level.
func (c *AppConfig) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
