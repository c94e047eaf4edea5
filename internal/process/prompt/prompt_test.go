package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/core/window"
)

func testCatalog() *catalog.Catalog {
	return catalog.New("Tel Aviv", "events", []string{"Jazz", "Rock", "Classical"}, []catalog.Venue{
		{ID: "barby", Name: "Barby", Domains: []string{"barby.co.il"}},
	})
}

var testWindow = window.Resolve(window.Next7Days, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

func TestBuild_Preferences(t *testing.T) {
	profile := domain.SubscriberProfile{
		Artists: []string{"Avishai Cohen", " "},
		Genres:  []string{"Jazz"},
		Venues:  []string{"barby", "Secret Garden"},
	}

	got := Build(profile, testWindow, nil, testCatalog())

	assert.Contains(t, got, "Preferred artists: Avishai Cohen\n")
	assert.Contains(t, got, "Preferred genres: Jazz\n")
	assert.Contains(t, got, "Allowed venues: Barby, Secret Garden\n")
	assert.Contains(t, got, "Time window: Tuesday, 10 March 2026 to Tuesday, 17 March 2026")
	assert.Contains(t, got, "explicitly present in the sources")
	assert.Contains(t, got, "Do not use outside knowledge")
	assert.NotContains(t, got, "No genre filtering is required")
}

func TestBuild_Fallbacks(t *testing.T) {
	got := Build(domain.SubscriberProfile{}, testWindow, nil, testCatalog())

	assert.Contains(t, got, "Preferred artists: none specified")
	assert.Contains(t, got, "Preferred genres: any genre")
	assert.Contains(t, got, "Allowed venues: any venue")
}

func TestBuild_AllGenresMeansNoFilter(t *testing.T) {
	profile := domain.SubscriberProfile{Genres: []string{"rock", "Classical", "JAZZ", "Jazz"}}

	got := Build(profile, testWindow, nil, testCatalog())

	assert.Contains(t, got, "Preferred genres: any genre")
	assert.Contains(t, got, "No genre filtering is required")
}

func TestBuild_Sources(t *testing.T) {
	long := strings.Repeat("x", MaxSourceChars+50)
	docs := []domain.SourceDocument{
		{URL: "https://barby.co.il/events", Title: "Barby", Text: "Jazz Night"},
		{URL: "https://barby.co.il/long", Text: long},
	}

	got := Build(domain.SubscriberProfile{}, testWindow, docs, testCatalog())

	assert.Contains(t, got, "[Source 1] https://barby.co.il/events\nTitle: Barby\nJazz Night")
	assert.Contains(t, got, "[Source 2] https://barby.co.il/long\n")
	assert.Contains(t, got, strings.Repeat("x", MaxSourceChars)+"\n"+TruncationMarker)
	assert.NotContains(t, got, strings.Repeat("x", MaxSourceChars+1))
}

func TestBuild_Schema(t *testing.T) {
	got := Build(domain.SubscriberProfile{}, testWindow, nil, testCatalog())

	for _, field := range []string{`"event_name"`, `"artists"`, `"genres"`, `"date"`, `"venue"`, `"event_url"`} {
		assert.Contains(t, got, field)
	}

	assert.Contains(t, got, "at most 10 objects")
	assert.Contains(t, got, "return [].")
	assert.Contains(t, got, "Return ONLY the JSON array")
}

func TestBuild_Deterministic(t *testing.T) {
	profile := domain.SubscriberProfile{Genres: []string{"Jazz"}, Venues: []string{"barby"}}
	docs := []domain.SourceDocument{{URL: "https://barby.co.il", Text: "t"}}

	assert.Equal(t, Build(profile, testWindow, docs, testCatalog()), Build(profile, testWindow, docs, testCatalog()))
}
