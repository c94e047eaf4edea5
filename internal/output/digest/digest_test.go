package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/htmlutils"
)

func testEvents(n int) []domain.ValidatedEvent {
	events := make([]domain.ValidatedEvent, 0, n)

	for i := range n {
		events = append(events, domain.ValidatedEvent{
			EventName: fmt.Sprintf("Event %d", i+1),
			Venue:     "Barby",
			Date:      "2026-03-13T21:00:00Z",
			EventURL:  fmt.Sprintf("https://barby.co.il/e/%d", i+1),
			StartsAt:  time.Date(2026, 3, 13, 21, 0, 0, 0, time.UTC),
			Artists:   []string{},
			Genres:    []string{},
		})
	}

	return events
}

func TestCompose_NothingMatched(t *testing.T) {
	for _, channel := range []string{domain.ChannelTelegram, domain.ChannelEmail} {
		t.Run(channel, func(t *testing.T) {
			got, err := Compose(channel, "Dana", nil)
			require.NoError(t, err)

			assert.True(t, got.Empty())
			assert.Equal(t, subjectNoEvents, got.Subject)
			assert.Contains(t, got.Body, "Nothing matched your preferences this time")
			assert.Contains(t, got.Body, "Dana")
		})
	}
}

func TestCompose_TelegramCap(t *testing.T) {
	got, err := Compose(domain.ChannelTelegram, "Dana", testEvents(13))
	require.NoError(t, err)

	assert.Equal(t, TelegramDisplayCap, got.Shown)
	assert.Equal(t, 13, got.Total)
	assert.Contains(t, got.Body, "10. <b>Event 10</b>")
	assert.NotContains(t, got.Body, "Event 11")
	assert.Contains(t, got.Body, "+3 more events")
}

func TestCompose_EmailCap(t *testing.T) {
	got, err := Compose(domain.ChannelEmail, "Dana", testEvents(16))
	require.NoError(t, err)

	assert.Equal(t, EmailDisplayCap, got.Shown)
	assert.Equal(t, 15, strings.Count(got.Body, `class="event"`))
	assert.Contains(t, got.Body, "&#43;1 more event")
	assert.Contains(t, htmlutils.StripHTMLTags(got.Body), "+1 more event")
	assert.Contains(t, got.Text, "\n+1 more event\n")

	got, err = Compose(domain.ChannelEmail, "Dana", testEvents(15))
	require.NoError(t, err)
	assert.NotContains(t, got.Body, "more event")
	assert.NotContains(t, got.Text, "more event")
}

func TestCompose_EmailPlainText(t *testing.T) {
	events := []domain.ValidatedEvent{{
		EventName: "Rock & Roll Night",
		Artists:   []string{"Band A", "Band B"},
		Genres:    []string{"Rock"},
		Venue:     "Zappa",
		Date:      "2026-03-14",
		StartsAt:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		EventURL:  "https://zappa-club.co.il/show?id=1&x=2",
	}}

	got, err := Compose(domain.ChannelEmail, "Dana", events)
	require.NoError(t, err)

	want := "Hi Dana, here are your upcoming events\n" +
		"\n" +
		"Rock & Roll Night\n" +
		"Artists: Band A, Band B\n" +
		"Venue: Zappa\n" +
		"When: Sat, 14 Mar 2026\n" +
		"Genres: Rock\n" +
		"https://zappa-club.co.il/show?id=1&x=2\n"
	assert.Equal(t, want, got.Text)
	assert.NotContains(t, got.Text, "DOCTYPE")
	assert.NotContains(t, got.Text, subjectWithEvents)

	empty, err := Compose(domain.ChannelEmail, "Dana", nil)
	require.NoError(t, err)
	assert.Contains(t, empty.Text, "Nothing matched your preferences this time")

	tg, err := Compose(domain.ChannelTelegram, "Dana", events)
	require.NoError(t, err)
	assert.Empty(t, tg.Text)
}

func TestCompose_TelegramEventFields(t *testing.T) {
	events := []domain.ValidatedEvent{{
		EventName: "Rock & Roll <Night>",
		Artists:   []string{"Band A", "Band B"},
		Genres:    []string{"Rock"},
		Venue:     "Zappa",
		Date:      "2026-03-14",
		StartsAt:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		EventURL:  "https://zappa-club.co.il/show?id=1&x=2",
	}}

	got, err := Compose(domain.ChannelTelegram, "", events)
	require.NoError(t, err)

	assert.Contains(t, got.Body, "Events for there")
	assert.Contains(t, got.Body, "<b>Rock &amp; Roll &lt;Night&gt;</b>")
	assert.Contains(t, got.Body, "🎤 Band A, Band B")
	assert.Contains(t, got.Body, "📍 Zappa")
	assert.Contains(t, got.Body, "📅 Sat, 14 Mar 2026\n")
	assert.Contains(t, got.Body, "🎵 Rock")
	assert.Contains(t, got.Body, `<a href="https://zappa-club.co.il/show?id=1&amp;x=2">`)
}

func TestCompose_OmitsEmptyGenres(t *testing.T) {
	got, err := Compose(domain.ChannelTelegram, "Dana", testEvents(1))
	require.NoError(t, err)

	assert.NotContains(t, got.Body, "🎵")
	assert.Contains(t, got.Body, "📅 Fri, 13 Mar 2026 21:00")
}

func TestCompose_EmailSingleJazzEvent(t *testing.T) {
	events := []domain.ValidatedEvent{{
		EventName: "Jazz Night",
		Artists:   []string{},
		Genres:    []string{"Jazz"},
		Venue:     "Barby",
		Date:      "2026-03-13",
		EventURL:  "https://barby.co.il/events/jazz-night",
	}}

	got, err := Compose(domain.ChannelEmail, "Dana", events)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(got.Body, `class="event"`))
	assert.Contains(t, got.Body, "Genres: Jazz")
	assert.Contains(t, got.Body, "When: 2026-03-13")
	assert.Contains(t, got.Body, `href="https://barby.co.il/events/jazz-night"`)
}

func TestCompose_UnknownChannel(t *testing.T) {
	_, err := Compose("pigeon", "Dana", testEvents(1))

	require.ErrorIs(t, err, apperrors.ErrUnknownChannel)
}
