package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/energy-climate-stats/internal/api/http"
	"github.com/i474232898/energy-climate-stats/internal/config"
	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/ingest"
	"github.com/i474232898/energy-climate-stats/internal/scheduler"
	"github.com/i474232898/energy-climate-stats/internal/store"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

// backend is what the process needs from a store implementation.
type backend interface {
	energy.DAO
	temperature.DAO
	ingest.Sink
	httpapi.Pinger
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Logger = cfg.CreateLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeDB()

	energySvc := energy.NewService(db)
	tempSvc := temperature.NewService(db)

	// Scheduler that periodically imports CSV exports.
	sched := scheduler.New(cfg.ImportDir, cfg.ImportInterval, ingest.NewImporter(db))
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "energy-climate-stats",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: "GET,OPTIONS",
	}))

	httpapi.RegisterRoutes(app, energySvc, tempSvc, db)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

// openStore selects the store implementation from the configured driver.
func openStore(ctx context.Context, cfg *config.AppConfig) (backend, func(), error) {
	if cfg.DBDriver == store.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	backoff := store.DefaultBackoff
	backoff.MaxRetries = cfg.DBMaxRetries

	s, err := store.Open(openCtx, store.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		QueryTimeout: cfg.DBQueryTimeout,
		WriteTimeout: cfg.DBWriteTimeout,
		Backoff:      backoff,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.DBAutoMigrate {
		if err := s.Migrate(openCtx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return s, func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}, nil
}
