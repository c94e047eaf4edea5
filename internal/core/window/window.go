// Package window maps a subscriber's symbolic event window to a concrete date range.
package window

import (
	"time"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

// Event window values offered at onboarding.
const (
	ThisWeekend = "This weekend"
	Next7Days   = "Next 7 days"
	Next2Weeks  = "Next 2 weeks"
	ThisMonth   = "This month"
)

const (
	daysPerWeek   = 7
	daysInTwoWeek = 14
)

// Options lists the supported event windows in display order.
var Options = []string{ThisWeekend, Next7Days, Next2Weeks, ThisMonth}

// Resolve returns the window starting at now. Unknown values fall back to ThisMonth.
// All arithmetic is in UTC.
func Resolve(eventWindow string, now time.Time) domain.TimeWindow {
	now = now.UTC()

	switch eventWindow {
	case ThisWeekend:
		daysUntilSunday := (daysPerWeek - int(now.Weekday())) % daysPerWeek
		sunday := now.AddDate(0, 0, daysUntilSunday)

		return domain.TimeWindow{Start: now, End: endOfDay(sunday), Label: ThisWeekend}
	case Next7Days:
		return domain.TimeWindow{Start: now, End: now.AddDate(0, 0, daysPerWeek), Label: Next7Days}
	case Next2Weeks:
		return domain.TimeWindow{Start: now, End: now.AddDate(0, 0, daysInTwoWeek), Label: Next2Weeks}
	default:
		return domain.TimeWindow{Start: now, End: endOfMonth(now), Label: ThisMonth}
	}
}

// IsKnown reports whether the value is one of Options.
func IsKnown(eventWindow string) bool {
	for _, o := range Options {
		if o == eventWindow {
			return true
		}
	}

	return false
}

// Describe renders the window as a human-readable date range.
func Describe(w domain.TimeWindow) string {
	const layout = "Monday, 2 January 2006"

	return w.Start.UTC().Format(layout) + " to " + w.End.UTC().Format(layout)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)

	return firstOfNext.Add(-time.Millisecond)
}
