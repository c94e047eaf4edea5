package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/app"
	"github.com/lueurxax/event-digest-bot/internal/platform/config"
	db "github.com/lueurxax/event-digest-bot/internal/storage"
)

func main() {
	mode := flag.String("mode", "scheduler", "Service mode (scheduler, once, run, http)")
	subscriberID := flag.String("subscriber", "", "Subscriber id for run mode")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application, err := app.New(cfg, database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if *mode == "scheduler" || *mode == "http" {
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, *subscriberID); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode, subscriberID string) error {
	switch mode {
	case "scheduler":
		return application.RunScheduler(ctx)
	case "once":
		return application.RunOnce(ctx)
	case "run":
		if subscriberID == "" {
			log.Fatalf("Usage: %s --mode=run --subscriber=<id>", os.Args[0])
		}

		return application.RunSubscriber(ctx, subscriberID)
	case "http":
		return application.RunHTTP(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[scheduler|once|run|http]", os.Args[0])

		return nil
	}
}
