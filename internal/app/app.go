// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Scheduler mode: tick loop that runs every due subscriber
//   - Once mode: a single tick, for cron-style deployments
//   - Run mode: a forced run for one subscriber
//   - HTTP mode: health and metrics only
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/core/llm"
	"github.com/lueurxax/event-digest-bot/internal/output/delivery"
	"github.com/lueurxax/event-digest-bot/internal/platform/config"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
	"github.com/lueurxax/event-digest-bot/internal/platform/schedule"
	"github.com/lueurxax/event-digest-bot/internal/process/gather"
	"github.com/lueurxax/event-digest-bot/internal/process/pipeline"
	"github.com/lueurxax/event-digest-bot/internal/process/scheduler"
	db "github.com/lueurxax/event-digest-bot/internal/storage"
)

const (
	logFieldProvider = "provider"
	logFieldChannels = "channels"
	logFieldPath     = "path"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	catalogs *catalog.Loader
	logger   *zerolog.Logger
}

// New creates a new App instance. The catalog override file, when configured, must parse.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	catalogs, err := catalog.NewLoader(cfg.CatalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &App{
		cfg:      cfg,
		database: database,
		catalogs: catalogs,
		logger:   logger,
	}, nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunHTTP serves health and metrics until ctx is canceled.
func (a *App) RunHTTP(ctx context.Context) error {
	<-ctx.Done()

	return ctx.Err()
}

// RunScheduler ticks forever, hot-reloading the catalog file when enabled.
func (a *App) RunScheduler(ctx context.Context) error {
	if a.cfg.CatalogHotReload && a.cfg.CatalogPath != "" {
		stop, err := a.catalogs.Watch()
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
		defer stop()

		a.logger.Info().Str(logFieldPath, a.cfg.CatalogPath).Msg("catalog hot reload enabled")
	}

	s, err := a.newScheduler()
	if err != nil {
		return err
	}

	return s.Run(ctx)
}

// RunOnce performs a single scheduler tick.
func (a *App) RunOnce(ctx context.Context) error {
	s, err := a.newScheduler()
	if err != nil {
		return err
	}

	report, err := s.Tick(ctx)
	if err != nil {
		return fmt.Errorf("scheduler tick: %w", err)
	}

	a.logger.Info().
		Int("active", report.Active).
		Int("due", report.Due).
		Int("delivered", report.Delivered).
		Int("failed", report.Failed).
		Msg("single tick finished")

	return nil
}

// RunSubscriber forces a digest for one subscriber.
func (a *App) RunSubscriber(ctx context.Context, id string) error {
	s, err := a.newScheduler()
	if err != nil {
		return err
	}

	outcome, err := s.RunSubscriber(ctx, id)
	if err != nil {
		return fmt.Errorf("run subscriber %s (trace %s): %w", id, outcome.TraceID, err)
	}

	a.logger.Info().
		Str("subscriber_id", id).
		Str("trace_id", outcome.TraceID).
		Str("status", outcome.Status).
		Int("event_count", outcome.Events).
		Msg("forced run finished")

	return nil
}

func (a *App) newScheduler() (*scheduler.Scheduler, error) {
	loc, err := schedule.LoadLocation(a.cfg.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}

	router, err := a.newRouter()
	if err != nil {
		return nil, err
	}

	gatherer := gather.NewGatherer(a.newSearchProvider(), a.logger)
	runner := pipeline.New(gatherer, llm.New(a.cfg, a.logger), a.logger)

	cfg := scheduler.Config{
		Location:     loc,
		Tolerance:    a.cfg.ScheduleTolerance,
		TickInterval: a.cfg.SchedulerTickInterval,
	}

	return scheduler.New(cfg, a.database, a.database, runner, router, a.catalogs, a.logger), nil
}

func (a *App) newSearchProvider() gather.Provider {
	a.logger.Info().Str(logFieldProvider, a.cfg.SearchProvider).Msg("search provider selected")

	if a.cfg.SearchProvider == config.SearchProviderSearxNG {
		fetcher := gather.NewWebFetcher(a.cfg.WebFetchRPS, a.cfg.WebFetchTimeout)

		return gather.NewSearxNGProvider(gather.SearxNGConfig{
			BaseURL:          a.cfg.SearxNGBaseURL,
			Timeout:          a.cfg.SearchTimeout,
			Engines:          a.cfg.SearxNGEngines,
			RPS:              a.cfg.SearchRPS,
			MaxContentLength: a.cfg.MaxContentLength,
		}, fetcher, a.logger)
	}

	return gather.NewScrapeSearchProvider(gather.ScrapeSearchConfig{
		APIKey:  a.cfg.SearchAPIKey,
		BaseURL: a.cfg.SearchBaseURL,
		Timeout: a.cfg.SearchTimeout,
		RPS:     a.cfg.SearchRPS,
	})
}

func (a *App) newRouter() (*delivery.Router, error) {
	router := delivery.NewRouter()

	if a.cfg.BotToken != "" {
		sender, err := delivery.NewTelegramSender(a.cfg.BotToken, a.logger)
		if err != nil {
			return nil, fmt.Errorf("telegram sender: %w", err)
		}

		router.Register(domain.ChannelTelegram, sender)
	}

	if a.cfg.SMTPEnabled() {
		router.Register(domain.ChannelEmail, delivery.NewSMTPSender(delivery.SMTPConfig{
			Host:     a.cfg.SMTPHost,
			Port:     a.cfg.SMTPPort,
			Username: a.cfg.SMTPUsername,
			Password: a.cfg.SMTPPassword,
			From:     a.cfg.SMTPFrom,
		}, a.logger))
	}

	channels := router.Channels()
	if len(channels) == 0 {
		a.logger.Warn().Msg("no delivery channel configured, every run will fail delivery")
	}

	a.logger.Info().Strs(logFieldChannels, channels).Dur("tolerance", a.cfg.ScheduleTolerance).Msg("delivery channels ready")

	return router, nil
}
