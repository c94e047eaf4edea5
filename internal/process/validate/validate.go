// Package validate is the trust boundary between the extraction model and the
// digest. Every guarantee a ValidatedEvent carries is enforced here, never
// assumed from the prompt.
package validate

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/core/llm"
	"github.com/lueurxax/event-digest-bot/internal/process/grounding"
)

// MaxEvents caps the validated list.
const MaxEvents = 10

// Drop reasons reported per rejected candidate.
const (
	DropNotObject     = "not_object"
	DropMissingField  = "missing_field"
	DropBadDate       = "bad_date"
	DropOutOfWindow   = "out_of_window"
	DropBadURL        = "bad_url"
	DropUngrounded    = "ungrounded"
	DropGenreMismatch = "genre_mismatch"
	DropDuplicate     = "duplicate"
	DropOverCap       = "over_cap"
)

// Report summarizes one validation pass.
type Report struct {
	Candidates int
	Malformed  bool
	Drops      map[string]int
}

// Validate turns raw model text into the final event list. It never fails:
// malformed input yields fewer events.
func Validate(raw string, profile domain.SubscriberProfile, allow grounding.AllowList, w domain.TimeWindow, cat *catalog.Catalog) []domain.ValidatedEvent {
	events, _ := ValidateWithReport(raw, profile, allow, w, cat)

	return events
}

// ValidateWithReport is Validate plus per-reason drop counts.
func ValidateWithReport(raw string, profile domain.SubscriberProfile, allow grounding.AllowList, w domain.TimeWindow, cat *catalog.Catalog) ([]domain.ValidatedEvent, Report) {
	report := Report{Drops: make(map[string]int)}

	elements, ok := parseArray(raw)
	if !ok {
		report.Malformed = true

		return []domain.ValidatedEvent{}, report
	}

	report.Candidates = len(elements)

	filterGenres := cat.GenreFilterActive(profile.Genres)
	preferred := foldSet(profile.Genres)
	seenURLs := make(map[string]bool)
	events := make([]domain.ValidatedEvent, 0, min(len(elements), MaxEvents))

	for _, element := range elements {
		candidate, ok := decodeCandidate(element)
		if !ok {
			report.Drops[DropNotObject]++
			continue
		}

		event, reason := check(candidate, allow, w)
		if reason != "" {
			report.Drops[reason]++
			continue
		}

		if filterGenres && !anyGenreMatches(event.Genres, preferred) {
			report.Drops[DropGenreMismatch]++
			continue
		}

		if seenURLs[event.EventURL] {
			report.Drops[DropDuplicate]++
			continue
		}

		seenURLs[event.EventURL] = true

		if len(events) == MaxEvents {
			report.Drops[DropOverCap]++
			continue
		}

		events = append(events, event)
	}

	return events, report
}

// parseArray strips code fences and decodes a JSON array. Anything else is
// reported as not ok.
func parseArray(raw string) ([]json.RawMessage, bool) {
	text := llm.StripCodeFences(raw)
	if !strings.HasPrefix(text, "[") {
		return nil, false
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, false
	}

	return elements, true
}

func decodeCandidate(element json.RawMessage) (domain.CandidateEvent, bool) {
	var candidate domain.CandidateEvent

	if !bytes.HasPrefix(bytes.TrimSpace(element), []byte("{")) {
		return candidate, false
	}

	if err := json.Unmarshal(element, &candidate); err != nil {
		return candidate, false
	}

	return candidate, true
}

// check applies the per-candidate field, date, URL and grounding rules and
// returns the drop reason, or "" when the candidate survives.
func check(c domain.CandidateEvent, allow grounding.AllowList, w domain.TimeWindow) (domain.ValidatedEvent, string) {
	event := domain.ValidatedEvent{
		EventName: asString(c.EventName),
		Venue:     asString(c.Venue),
		Date:      asString(c.Date),
		EventURL:  asString(c.EventURL),
		Artists:   asStrings(c.Artists),
		Genres:    asStrings(c.Genres),
	}

	if event.EventName == "" || event.Date == "" || event.Venue == "" || event.EventURL == "" {
		return event, DropMissingField
	}

	startsAt, dateOnly, ok := parseEventDate(event.Date)
	if !ok {
		return event, DropBadDate
	}

	if !inWindow(startsAt, dateOnly, w) {
		return event, DropOutOfWindow
	}

	event.StartsAt = startsAt

	u, err := url.Parse(event.EventURL)
	if err != nil || !u.IsAbs() || u.Hostname() == "" || !webScheme(u.Scheme) {
		return event, DropBadURL
	}

	if !allow.Allows(event.EventURL, u.Hostname()) {
		return event, DropUngrounded
	}

	return event, ""
}

// parseEventDate parses a free-form date. Values without a time of day are
// reported as dateOnly. Zone-less values are read as UTC.
func parseEventDate(s string) (t time.Time, dateOnly, ok bool) {
	// dateparse can panic on some malformed inputs.
	defer func() {
		if recover() != nil {
			t, dateOnly, ok = time.Time{}, false, false
		}
	}()

	if isEpochLike(s) {
		return time.Time{}, false, false
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.IsZero() {
		return time.Time{}, false, false
	}

	t = t.UTC()
	dateOnly = !strings.Contains(s, ":") && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0

	return t, dateOnly, true
}

// maxCompactDateDigits is the length of a compact yyyymmdd date. Longer digit
// runs are Unix timestamps to dateparse, not calendar dates.
const maxCompactDateDigits = 8

func isEpochLike(s string) bool {
	if len(s) <= maxCompactDateDigits {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func webScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)

	return scheme == "http" || scheme == "https"
}

// inWindow compares instants inclusively. A date-only value covers its whole
// UTC day and passes when that day overlaps the window.
func inWindow(t time.Time, dateOnly bool, w domain.TimeWindow) bool {
	if !dateOnly {
		return w.Contains(t)
	}

	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)

	return !dayEnd.Before(w.Start) && !dayStart.After(w.End)
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(s)
}

func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}

	return out
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))

	for _, v := range values {
		if key := catalog.FoldKey(v); key != "" {
			set[key] = struct{}{}
		}
	}

	return set
}

func anyGenreMatches(genres []string, preferred map[string]struct{}) bool {
	for _, g := range genres {
		if _, ok := preferred[catalog.FoldKey(g)]; ok {
			return true
		}
	}

	return false
}
