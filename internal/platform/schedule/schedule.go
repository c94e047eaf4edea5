// Package schedule resolves weekly delivery slots ("Tuesday 09:00") in a civil timezone
// and decides whether a slot is due.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"
)

// DefaultTimezone is the civil timezone schedules are interpreted in when none is configured.
const DefaultTimezone = "Asia/Jerusalem"

// Time conversion constants.
const (
	minutesPerHour = 60
	maxHour        = 23
	daysPerWeek    = 7
)

// Error messages.
const (
	errFmtInvalidTimezone = "invalid timezone: %w"
)

// Static errors for schedule validation.
var (
	ErrTimeFormat     = errors.New("time must be HH:MM")
	ErrInvalidHour    = errors.New("invalid hour")
	ErrInvalidMinute  = errors.New("invalid minute")
	ErrHourOutOfRange = errors.New("hour out of range")
	ErrInvalidWeekday = errors.New("invalid day of week")
)

var timezoneAliases = map[string]string{
	"Asia/Nicosia":  "Europe/Nicosia",
	"Asia/Tel_Aviv": "Asia/Jerusalem",
	"Israel":        "Asia/Jerusalem",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Slot is one weekly send time.
type Slot struct {
	Day    time.Weekday
	Minute int
}

// Parse builds a slot from a weekday name and an HH:MM time.
func Parse(day, hm string) (Slot, error) {
	weekday, err := ParseWeekday(day)
	if err != nil {
		return Slot{}, err
	}

	minute, err := parseTimeHM(hm)
	if err != nil {
		return Slot{}, fmt.Errorf("time %q: %w", hm, err)
	}

	return Slot{Day: weekday, Minute: minute}, nil
}

// ParseWeekday accepts full English day names or their three-letter prefixes, case-insensitively.
func ParseWeekday(value string) (time.Weekday, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	if d, ok := weekdays[value]; ok {
		return d, nil
	}

	if len(value) == 3 {
		for name, d := range weekdays {
			if strings.HasPrefix(name, value) {
				return d, nil
			}
		}
	}

	return time.Sunday, fmt.Errorf("%q: %w", value, ErrInvalidWeekday)
}

// String renders the slot as "Tuesday 09:00".
func (s Slot) String() string {
	return fmt.Sprintf("%s %02d:%02d", s.Day, s.Minute/minutesPerHour, s.Minute%minutesPerHour)
}

// LastOccurrence returns the latest slot time at or before now, in loc.
func (s Slot) LastOccurrence(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	back := (int(local.Weekday()) - int(s.Day) + daysPerWeek) % daysPerWeek
	d := local.AddDate(0, 0, -back)

	occ := time.Date(d.Year(), d.Month(), d.Day(), s.Minute/minutesPerHour, s.Minute%minutesPerHour, 0, 0, loc)
	if occ.After(local) {
		d = d.AddDate(0, 0, -daysPerWeek)
		occ = time.Date(d.Year(), d.Month(), d.Day(), s.Minute/minutesPerHour, s.Minute%minutesPerHour, 0, 0, loc)
	}

	return occ
}

// Due reports whether now falls in [occurrence, occurrence+tolerance) and the slot
// has not been handled since that occurrence. It returns the occurrence it matched.
func (s Slot) Due(now, lastSent time.Time, loc *time.Location, tolerance time.Duration) (time.Time, bool) {
	occ := s.LastOccurrence(now, loc)

	if now.Before(occ) || !now.Before(occ.Add(tolerance)) {
		return occ, false
	}

	if !lastSent.IsZero() && !lastSent.Before(occ) {
		return occ, false
	}

	return occ, true
}

// LoadLocation resolves a timezone name, mapping known aliases. Empty means DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	name = NormalizeTimezone(name)
	if name == "" {
		name = DefaultTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidTimezone, err)
	}

	return loc, nil
}

// NormalizeTimezone maps known aliases to canonical IANA names.
func NormalizeTimezone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if canonical, ok := timezoneAliases[value]; ok {
		return canonical
	}

	return value
}

func parseTimeHM(value string) (int, error) {
	normalized, err := NormalizeTimeHM(value)
	if err != nil {
		return 0, err
	}

	hour, err := strconv.Atoi(normalized[:2])
	if err != nil {
		return 0, ErrInvalidHour
	}

	minute, err := strconv.Atoi(normalized[3:])
	if err != nil {
		return 0, ErrInvalidMinute
	}

	return hour*minutesPerHour + minute, nil
}

// NormalizeTimeHM accepts H:MM or HH:MM and returns HH:MM.
func NormalizeTimeHM(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrTimeFormat
	}

	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", ErrTimeFormat
	}

	if len(parts[1]) != 2 {
		return "", ErrTimeFormat
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ErrInvalidHour
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", ErrInvalidMinute
	}

	if hour > maxHour || hour < 0 {
		return "", ErrHourOutOfRange
	}

	if minute < 0 || minute >= minutesPerHour {
		return "", ErrInvalidMinute
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
