package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/core/window"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeGatherer struct {
	docs    []domain.SourceDocument
	traceID string
}

func (f *fakeGatherer) Gather(ctx context.Context, _ domain.SubscriberProfile, _ *catalog.Catalog) []domain.SourceDocument {
	f.traceID = trace.FromContext(ctx)

	return f.docs
}

type fakeExtractor struct {
	raw         string
	err         error
	calls       int
	instruction string
}

func (f *fakeExtractor) Extract(_ context.Context, instruction string) (string, error) {
	f.calls++
	f.instruction = instruction

	return f.raw, f.err
}

func testCatalog() *catalog.Catalog {
	return catalog.New("Tel Aviv", "concerts", []string{"Jazz", "Rock", "Pop"}, []catalog.Venue{
		{ID: "barby", Name: "Barby", Domains: []string{"barby.co.il"}},
	})
}

func testProfile() domain.SubscriberProfile {
	return domain.SubscriberProfile{
		ID:       "sub-1",
		Name:     "Dana",
		Channel:  domain.ChannelEmail,
		Email:    "dana@example.com",
		Genres:   []string{"Jazz"},
		Venues:   []string{"barby"},
		Schedule: domain.Schedule{DayOfWeek: "Tuesday", Time: "09:00", EventWindow: window.Next7Days},
		Active:   true,
	}
}

func newTestPipeline(g SourceGatherer, e *fakeExtractor) *Pipeline {
	logger := zerolog.Nop()
	p := New(g, e, &logger)
	p.now = func() time.Time { return testNow }

	return p
}

func TestRunEndToEnd(t *testing.T) {
	gatherer := &fakeGatherer{docs: []domain.SourceDocument{{
		URL:   "https://barby.co.il/events",
		Title: "Barby events",
		Text:  "Jazz Night on 2026-03-13, tickets at https://barby.co.il/events/jazz-night",
	}}}
	extractor := &fakeExtractor{raw: `[{"event_name":"Jazz Night","artists":[],"genres":["Jazz"],"date":"2026-03-13","venue":"Barby","event_url":"https://barby.co.il/events/jazz-night"}]`}

	ctx := trace.WithID(context.Background(), "trace-e2e")

	res, err := newTestPipeline(gatherer, extractor).Run(ctx, testProfile(), testCatalog())
	require.NoError(t, err)

	assert.Equal(t, "trace-e2e", res.TraceID)
	assert.Equal(t, "trace-e2e", gatherer.traceID)
	assert.Equal(t, 1, res.SourceCount)
	assert.NoError(t, res.ExtractionErr)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "https://barby.co.il/events/jazz-night", res.Events[0].EventURL)
	assert.Contains(t, extractor.instruction, "[Source 1] https://barby.co.il/events")
	assert.Equal(t, window.Next7Days, res.Window.Label)
}

func TestRunWarnsOnUnhonoredSettings(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)
	p := New(&fakeGatherer{}, &fakeExtractor{}, &logger)
	p.now = func() time.Time { return testNow }

	profile := testProfile()
	profile.Genres = []string{"jazz", "Polka"}
	profile.Schedule.EventWindow = "Next decade"

	res, err := p.Run(context.Background(), profile, testCatalog())
	require.NoError(t, err)

	assert.Equal(t, window.ThisMonth, res.Window.Label)
	assert.Contains(t, buf.String(), `"event_window":"Next decade"`)
	assert.Contains(t, buf.String(), "unknown event window, using fallback")
	assert.Contains(t, buf.String(), `"genres":["Polka"]`)

	buf.Reset()

	_, err = p.Run(context.Background(), testProfile(), testCatalog())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "unknown event window")
	assert.NotContains(t, buf.String(), "catalog vocabulary")
}

func TestRunZeroSourcesSkipsExtraction(t *testing.T) {
	extractor := &fakeExtractor{raw: `[]`}

	res, err := newTestPipeline(&fakeGatherer{}, extractor).Run(context.Background(), testProfile(), testCatalog())
	require.NoError(t, err)

	assert.Equal(t, 0, extractor.calls)
	assert.Equal(t, 0, res.SourceCount)
	assert.NotNil(t, res.Events)
	assert.Empty(t, res.Events)
	assert.NotEmpty(t, res.TraceID)
}

func TestRunExtractionErrorsCompleteWithEmptyEvents(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "not configured", err: fmt.Errorf("model: %w", apperrors.ErrNotConfigured)},
		{name: "rate limited", err: fmt.Errorf("model: %w", apperrors.ErrRateLimited)},
		{name: "quota exhausted", err: fmt.Errorf("model: %w", apperrors.ErrQuotaExhausted)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gatherer := &fakeGatherer{docs: []domain.SourceDocument{{URL: "https://barby.co.il/events", Text: "text"}}}

			res, err := newTestPipeline(gatherer, &fakeExtractor{err: tt.err}).Run(context.Background(), testProfile(), testCatalog())
			require.NoError(t, err)

			assert.ErrorIs(t, res.ExtractionErr, tt.err)
			assert.Empty(t, res.Events)
			assert.Equal(t, 1, res.SourceCount)
		})
	}
}

func TestRunMalformedOutput(t *testing.T) {
	gatherer := &fakeGatherer{docs: []domain.SourceDocument{{URL: "https://barby.co.il/events", Text: "text"}}}

	res, err := newTestPipeline(gatherer, &fakeExtractor{raw: "not json"}).Run(context.Background(), testProfile(), testCatalog())
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.True(t, res.Report.Malformed)
}

func TestRunInvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *domain.SubscriberProfile)
		catalog *catalog.Catalog
	}{
		{name: "missing id", mutate: func(p *domain.SubscriberProfile) { p.ID = "" }, catalog: testCatalog()},
		{name: "unknown channel", mutate: func(p *domain.SubscriberProfile) { p.Channel = "sms" }, catalog: testCatalog()},
		{name: "missing contact", mutate: func(p *domain.SubscriberProfile) { p.Email = "" }, catalog: testCatalog()},
		{name: "missing catalog", mutate: func(*domain.SubscriberProfile) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testProfile()
			tt.mutate(&profile)

			extractor := &fakeExtractor{}
			ctx := trace.WithID(context.Background(), "trace-bad")

			_, err := newTestPipeline(&fakeGatherer{}, extractor).Run(ctx, profile, tt.catalog)
			require.ErrorIs(t, err, apperrors.ErrInvalidProfile)

			var runErr *RunError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, "trace-bad", runErr.TraceID)
			assert.Contains(t, err.Error(), "trace-bad")
			assert.Equal(t, 0, extractor.calls)
		})
	}
}
