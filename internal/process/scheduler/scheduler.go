// Package scheduler decides which subscribers are due and drives their runs.
// Each subscriber is processed in isolation: an error or panic in one run is
// logged and recorded without affecting the rest of the batch.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/output/digest"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
	"github.com/lueurxax/event-digest-bot/internal/platform/schedule"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
	"github.com/lueurxax/event-digest-bot/internal/platform/worker"
	"github.com/lueurxax/event-digest-bot/internal/process/pipeline"
	db "github.com/lueurxax/event-digest-bot/internal/storage"
)

// LockID is the advisory lock held while a tick processes the batch.
const LockID int64 = 73021

const (
	logFieldSubscriberID = "subscriber_id"
	logFieldSlot         = "slot"
	logFieldStatus       = "status"
)

// Store is the subscriber persistence the scheduler needs.
type Store interface {
	ListActive(ctx context.Context) ([]domain.SubscriberProfile, error)
	GetSubscriber(ctx context.Context, id string) (domain.SubscriberProfile, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	RecordRun(ctx context.Context, run db.DigestRun) (string, error)
}

// Compile-time assertion that *db.DB implements Store.
var _ Store = (*db.DB)(nil)

// Locker serializes ticks across instances.
type Locker interface {
	WithAdvisoryLock(ctx context.Context, lockID int64, fn func(ctx context.Context) error) (bool, error)
}

// Runner executes the pipeline for one subscriber.
type Runner interface {
	Run(ctx context.Context, profile domain.SubscriberProfile, cat *catalog.Catalog) (pipeline.RunResult, error)
}

// Deliverer sends a rendered digest.
type Deliverer interface {
	Deliver(ctx context.Context, recipient string, content digest.Content) error
}

// CatalogSource yields the catalog snapshot used by a run.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Config holds timing settings.
type Config struct {
	Location     *time.Location
	Tolerance    time.Duration
	TickInterval time.Duration
}

// BatchReport counts the outcomes of one tick.
type BatchReport struct {
	Active    int
	Due       int
	Delivered int
	Failed    int
}

// Outcome is the result of one subscriber run.
type Outcome struct {
	TraceID     string
	Status      string
	SourceCount int
	Events      int
	Err         error
}

type Scheduler struct {
	cfg       Config
	store     Store
	locker    Locker
	runner    Runner
	deliverer Deliverer
	catalogs  CatalogSource
	logger    *zerolog.Logger
	now       func() time.Time
}

// New builds a scheduler. locker may be nil for single-instance deployments.
func New(cfg Config, store Store, locker Locker, runner Runner, deliverer Deliverer, catalogs CatalogSource, logger *zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Scheduler{
		cfg:       cfg,
		store:     store,
		locker:    locker,
		runner:    runner,
		deliverer: deliverer,
		catalogs:  catalogs,
		logger:    logger,
		now:       time.Now,
	}
}

// Run ticks until ctx is canceled, processing due subscribers on every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "scheduler",
		PollInterval: s.cfg.TickInterval,
		Logger:       s.logger,
		Process: func(ctx context.Context) error {
			_, err := s.Tick(ctx)
			return err
		},
	})
}

// Tick processes the due subscribers once, under the advisory lock when a locker is set.
func (s *Scheduler) Tick(ctx context.Context) (BatchReport, error) {
	if s.locker == nil {
		return s.RunDue(ctx)
	}

	var report BatchReport

	acquired, err := s.locker.WithAdvisoryLock(ctx, LockID, func(ctx context.Context) error {
		var runErr error

		report, runErr = s.RunDue(ctx)

		return runErr
	})
	if err != nil {
		return report, err
	}

	if !acquired {
		s.logger.Debug().Msg("did not acquire scheduler lock, skipping tick")
	}

	return report, nil
}

// RunDue lists active subscribers and runs every one that is due now.
func (s *Scheduler) RunDue(ctx context.Context) (BatchReport, error) {
	profiles, err := s.store.ListActive(ctx)
	if err != nil {
		return BatchReport{}, fmt.Errorf("list active subscribers: %w", err)
	}

	now := s.now()
	due := s.Due(profiles, now)
	report := BatchReport{Active: len(profiles), Due: len(due)}

	for _, profile := range due {
		if ctx.Err() != nil {
			break
		}

		outcome := s.process(ctx, profile, true)
		if outcome.Err != nil {
			report.Failed++
		} else {
			report.Delivered++
		}
	}

	if report.Due > 0 {
		s.logger.Info().
			Int("active", report.Active).
			Int("due", report.Due).
			Int("delivered", report.Delivered).
			Int("failed", report.Failed).
			Msg("scheduler batch finished")
	}

	return report, nil
}

// Due filters profiles whose weekly slot is due at now and not yet handled.
// Profiles with an unparsable schedule are logged and skipped.
func (s *Scheduler) Due(profiles []domain.SubscriberProfile, now time.Time) []domain.SubscriberProfile {
	var due []domain.SubscriberProfile

	for _, p := range profiles {
		if !p.Active {
			continue
		}

		slot, err := schedule.Parse(p.Schedule.DayOfWeek, p.Schedule.Time)
		if err != nil {
			s.logger.Warn().Err(err).Str(logFieldSubscriberID, p.ID).Msg("invalid subscriber schedule, skipping")
			continue
		}

		if _, ok := slot.Due(now, p.LastSentAt, s.cfg.Location, s.cfg.Tolerance); ok {
			s.logger.Debug().Str(logFieldSubscriberID, p.ID).Str(logFieldSlot, slot.String()).Msg("subscriber due")

			due = append(due, p)
		}
	}

	return due
}

// RunSubscriber forces a run for one subscriber regardless of its schedule.
// The subscriber's last-sent marker is left untouched.
func (s *Scheduler) RunSubscriber(ctx context.Context, id string) (Outcome, error) {
	profile, err := s.store.GetSubscriber(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("load subscriber: %w", err)
	}

	outcome := s.process(ctx, profile, false)

	return outcome, outcome.Err
}

func (s *Scheduler) process(ctx context.Context, profile domain.SubscriberProfile, markSent bool) Outcome {
	traceID := trace.NewID()
	ctx = trace.WithID(ctx, traceID)
	logger := trace.Logger(ctx, s.logger).With().Str(logFieldSubscriberID, profile.ID).Logger()
	started := s.now()

	var outcome Outcome

	err := worker.Safe(&logger, "subscriber run", func() error {
		outcome = s.runAndDeliver(ctx, profile)
		return outcome.Err
	})
	if err != nil && outcome.Err == nil {
		outcome = Outcome{Status: db.RunStatusFailed, Err: err}
	}

	outcome.TraceID = traceID

	s.record(ctx, &logger, profile, outcome, started)

	if markSent {
		if err := s.store.MarkSent(ctx, profile.ID, started); err != nil {
			logger.Error().Err(err).Msg("failed to mark subscriber sent")
		}
	}

	return outcome
}

func (s *Scheduler) runAndDeliver(ctx context.Context, profile domain.SubscriberProfile) Outcome {
	result, err := s.runner.Run(ctx, profile, s.catalogs.Current())
	if err != nil {
		return Outcome{Status: db.RunStatusFailed, Err: err}
	}

	outcome := Outcome{Status: db.RunStatusFailed, SourceCount: result.SourceCount, Events: len(result.Events)}

	// A failed extraction is not "nothing matched"; nothing is sent.
	if result.ExtractionErr != nil {
		outcome.Err = fmt.Errorf("extraction: %w", result.ExtractionErr)
		return outcome
	}

	content, err := digest.Compose(profile.Channel, profile.Name, result.Events)
	if err != nil {
		outcome.Err = fmt.Errorf("compose digest: %w", err)
		return outcome
	}

	if err := s.deliverer.Deliver(ctx, profile.Recipient(), content); err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Status = db.RunStatusDelivered
	if content.Empty() {
		outcome.Status = db.RunStatusEmpty
	}

	return outcome
}

func (s *Scheduler) record(ctx context.Context, logger *zerolog.Logger, profile domain.SubscriberProfile, outcome Outcome, started time.Time) {
	run := db.DigestRun{
		SubscriberID: profile.ID,
		TraceID:      outcome.TraceID,
		Status:       outcome.Status,
		SourceCount:  outcome.SourceCount,
		EventCount:   outcome.Events,
		StartedAt:    started,
		FinishedAt:   s.now(),
	}

	if outcome.Err != nil {
		run.Error = outcome.Err.Error()
	}

	observability.RunsTotal.WithLabelValues(metricStatus(outcome)).Inc()

	if outcome.Err != nil {
		logger.Error().Err(outcome.Err).Str(logFieldStatus, outcome.Status).Msg("subscriber run failed")
	} else {
		logger.Info().Str(logFieldStatus, outcome.Status).Int("event_count", outcome.Events).Msg("subscriber run delivered")
	}

	if _, err := s.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error().Err(err).Msg("failed to record digest run")
	}
}

func metricStatus(o Outcome) string {
	switch {
	case o.Err != nil:
		return observability.StatusError
	case o.Status == db.RunStatusEmpty:
		return observability.StatusEmpty
	default:
		return observability.StatusOK
	}
}
