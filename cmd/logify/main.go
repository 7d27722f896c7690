package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/logify-sh/logify/internal/config"
	"github.com/logify-sh/logify/internal/database"
	"github.com/logify-sh/logify/internal/observability"
	"github.com/logify-sh/logify/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "logify").Logger()
	if cfg.Primary.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := observability.NewApplication(cfg.Observability)
	if err != nil {
		logger.Fatal().Err(err).Msg("new relic init")
	}

	if err := database.RunMigrations(ctx, cfg.Database.URL()); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger, app)
	if err != nil {
		logger.Fatal().Err(err).Msg("database pool")
	}
	defer pool.Close()

	srv := server.New(cfg, pool, logger, app)
	logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("starting ingestion gateway")
	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
