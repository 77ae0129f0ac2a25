package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/config"
	"github.com/Simplici0/coatworks/internal/db"
	"github.com/Simplici0/coatworks/internal/migrations"
	"github.com/Simplici0/coatworks/internal/obs"
	"github.com/Simplici0/coatworks/internal/seed"
	"github.com/Simplici0/coatworks/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal().Err(err).Msg("run database migrations")
	}

	if cfg.SeedCatalog {
		stats, err := seed.Run(context.Background(), database, seed.DefaultProducts)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed catalog")
		}
		logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("catalog seeded")
	}

	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	srv := &server{
		database:   database,
		products:   catalog.NewRepository(database, cfg.DefaultTaxPercent),
		documents:  store.New(database),
		metrics:    metrics,
		logger:     logger,
		defaultTax: cfg.DefaultTaxPercent,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.routes(cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
