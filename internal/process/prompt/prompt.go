// Package prompt renders the extraction instruction for one subscriber run.
package prompt

import (
	"strconv"
	"strings"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/core/window"
)

const (
	// MaxSourceChars is the per-document text budget.
	MaxSourceChars = 4000
	// MaxEvents is the number of events the model is asked to return at most.
	MaxEvents = 10

	TruncationMarker = "[...truncated]"

	noArtists = "none specified"
	anyGenre  = "any genre"
	anyVenue  = "any venue"
)

const rulesTemplate = `You extract upcoming cultural events in {{CITY}} from the web sources below.

Rules:
- Extract ONLY events that are explicitly present in the sources. Do not use outside knowledge. Do not invent or guess events, dates, venues or links.
- Every event_url must be a link that appears in the sources, or the URL of the source the event was found in.
- Only include events whose date falls within the time window.
- Prefer events that match the subscriber preferences.
`

const schemaTemplate = `Output format:
Return a JSON array with at most {{MAX_EVENTS}} objects. Each object has exactly these fields:
- "event_name": string
- "artists": array of strings (empty array if unknown)
- "genres": array of strings (empty array if unknown)
- "date": string, ISO-8601 date or date-time (YYYY-MM-DD or YYYY-MM-DDTHH:MM)
- "venue": string
- "event_url": string, absolute URL

If no event matches, return [].
Return ONLY the JSON array. No markdown, no code fences, no explanations.`

// Build renders the user instruction. It is a pure function of its inputs.
func Build(profile domain.SubscriberProfile, w domain.TimeWindow, docs []domain.SourceDocument, cat *catalog.Catalog) string {
	var sb strings.Builder

	city := cat.City()
	if city == "" {
		city = "the city"
	}

	sb.WriteString(strings.ReplaceAll(rulesTemplate, "{{CITY}}", city))
	sb.WriteString("\nSubscriber preferences:\n")
	sb.WriteString("- Preferred artists: " + listOr(profile.Artists, noArtists) + "\n")
	sb.WriteString("- Preferred genres: " + genreLine(profile.Genres, cat) + "\n")
	sb.WriteString("- Time window: " + window.Describe(w) + "\n")
	sb.WriteString("- Allowed venues: " + venueLine(profile.Venues, cat) + "\n")

	if !cat.GenreFilterActive(profile.Genres) {
		sb.WriteString("\nNo genre filtering is required: include events of any genre.\n")
	}

	sb.WriteString("\nSources:\n")

	for i, doc := range docs {
		sb.WriteString("\n[Source " + strconv.Itoa(i+1) + "] " + doc.URL + "\n")

		if doc.Title != "" {
			sb.WriteString("Title: " + doc.Title + "\n")
		}

		sb.WriteString(truncate(doc.Text, MaxSourceChars))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(strings.ReplaceAll(schemaTemplate, "{{MAX_EVENTS}}", strconv.Itoa(MaxEvents)))

	return sb.String()
}

func genreLine(genres []string, cat *catalog.Catalog) string {
	if !cat.GenreFilterActive(genres) {
		return anyGenre
	}

	return listOr(genres, anyGenre)
}

func venueLine(venues []string, cat *catalog.Catalog) string {
	names := make([]string, 0, len(venues))

	for _, id := range venues {
		if name := cat.VenueDisplayName(id); name != "" {
			names = append(names, name)
		}
	}

	return listOr(names, anyVenue)
}

func listOr(values []string, fallback string) string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	if len(out) == 0 {
		return fallback
	}

	return strings.Join(out, ", ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + "\n" + TruncationMarker
}
