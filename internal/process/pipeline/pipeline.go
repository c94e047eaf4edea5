// Package pipeline runs one subscriber through gather, grounding, prompt,
// extraction and validation. Stages run strictly in sequence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/core/llm"
	"github.com/lueurxax/event-digest-bot/internal/core/window"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
	"github.com/lueurxax/event-digest-bot/internal/process/grounding"
	"github.com/lueurxax/event-digest-bot/internal/process/prompt"
	"github.com/lueurxax/event-digest-bot/internal/process/validate"
)

// SourceGatherer collects documents for a profile. It never fails.
type SourceGatherer interface {
	Gather(ctx context.Context, profile domain.SubscriberProfile, cat *catalog.Catalog) []domain.SourceDocument
}

// RunResult is the outcome of one run. ExtractionErr is set when the model call
// failed; Events is then empty and the run itself still counts as completed.
type RunResult struct {
	TraceID       string
	Window        domain.TimeWindow
	SourceCount   int
	Events        []domain.ValidatedEvent
	ExtractionErr error
	Report        validate.Report
}

// RunError is a hard run failure tagged with the run's trace id.
type RunError struct {
	TraceID string
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %v", e.TraceID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

type Pipeline struct {
	gatherer  SourceGatherer
	extractor llm.Extractor
	logger    *zerolog.Logger
	now       func() time.Time
}

func New(gatherer SourceGatherer, extractor llm.Extractor, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		gatherer:  gatherer,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Run processes one profile against a catalog snapshot. The trace id is taken
// from ctx when present, otherwise a new one is attached.
func (p *Pipeline) Run(ctx context.Context, profile domain.SubscriberProfile, cat *catalog.Catalog) (RunResult, error) {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		traceID = trace.NewID()
		ctx = trace.WithID(ctx, traceID)
	}

	if err := checkProfile(profile, cat); err != nil {
		return RunResult{TraceID: traceID}, &RunError{TraceID: traceID, Err: err}
	}

	logger := trace.Logger(ctx, p.logger).With().Str(LogFieldSubscriberID, profile.ID).Logger()
	start := time.Now()

	defer func() {
		observability.RunDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result := RunResult{
		TraceID: traceID,
		Window:  window.Resolve(profile.Schedule.EventWindow, p.now()),
		Events:  []domain.ValidatedEvent{},
	}

	warnProfileSettings(&logger, profile, cat)

	docs := p.gatherer.Gather(ctx, profile, cat)
	result.SourceCount = len(docs)
	observability.SourceDocuments.Observe(float64(len(docs)))

	if len(docs) == 0 {
		logger.Info().Int(LogFieldSourceCount, 0).Msg("no sources gathered, skipping extraction")
		observability.EventsValidated.Observe(0)

		return result, nil
	}

	allow := grounding.BuildAllowList(docs)
	instruction := prompt.Build(profile, result.Window, docs, cat)

	raw, err := p.extractor.Extract(ctx, instruction)
	if err != nil {
		result.ExtractionErr = err

		logger.Warn().
			Err(err).
			Int(LogFieldSourceCount, len(docs)).
			Bool("retryable", llm.Retryable(err)).
			Msg("extraction failed, returning no events")

		return result, nil
	}

	events, report := validate.ValidateWithReport(raw, profile, allow, result.Window, cat)
	result.Events = events
	result.Report = report

	recordReport(report, len(events))

	logger.Info().
		Int(LogFieldSourceCount, len(docs)).
		Int("candidate_count", report.Candidates).
		Int(LogFieldEventCount, len(events)).
		Str(LogFieldWindow, result.Window.Label).
		Msg("run completed")

	return result, nil
}

func checkProfile(profile domain.SubscriberProfile, cat *catalog.Catalog) error {
	if cat == nil {
		return fmt.Errorf("%w: no catalog", apperrors.ErrInvalidProfile)
	}

	if profile.ID == "" {
		return fmt.Errorf("%w: missing id", apperrors.ErrInvalidProfile)
	}

	switch profile.Channel {
	case domain.ChannelTelegram, domain.ChannelEmail:
	default:
		return fmt.Errorf("%w: channel %q", apperrors.ErrInvalidProfile, profile.Channel)
	}

	if profile.Recipient() == "" {
		return fmt.Errorf("%w: no contact for channel %s", apperrors.ErrInvalidProfile, profile.Channel)
	}

	return nil
}

// warnProfileSettings logs preferences the run cannot honor as stored. Neither
// fails the run: the window falls back to the month and the validator matches
// genres against the catalog vocabulary.
func warnProfileSettings(logger *zerolog.Logger, profile domain.SubscriberProfile, cat *catalog.Catalog) {
	if !window.IsKnown(profile.Schedule.EventWindow) {
		logger.Warn().
			Str(LogFieldEventWindow, profile.Schedule.EventWindow).
			Str(LogFieldWindow, window.ThisMonth).
			Msg("unknown event window, using fallback")
	}

	if unknown := unknownGenres(profile.Genres, cat); len(unknown) > 0 {
		logger.Warn().Strs(LogFieldGenres, unknown).Msg("genres outside the catalog vocabulary")
	}
}

func unknownGenres(genres []string, cat *catalog.Catalog) []string {
	var unknown []string

	for _, g := range genres {
		if !cat.IsKnownGenre(g) {
			unknown = append(unknown, g)
		}
	}

	return unknown
}

func recordReport(report validate.Report, validated int) {
	if report.Malformed {
		observability.CandidateDropsTotal.WithLabelValues(dropReasonMalformed).Inc()
	}

	for reason, n := range report.Drops {
		observability.CandidateDropsTotal.WithLabelValues(reason).Add(float64(n))
	}

	observability.EventsValidated.Observe(float64(validated))
}
