package domain

import (
	"strconv"
	"time"
)

// Delivery channel identifiers.
const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"
)

// Schedule describes when a subscriber wants the digest and which event window it covers.
type Schedule struct {
	DayOfWeek   string `json:"day_of_week"`
	Time        string `json:"time"`
	EventWindow string `json:"event_window"`
}

// SubscriberProfile is read-only to the pipeline.
// Genre and venue identifiers outside the catalog are kept as opaque display strings.
type SubscriberProfile struct {
	ID             string
	Name           string
	Channel        string
	TelegramChatID int64
	Email          string
	Artists        []string
	Genres         []string
	Venues         []string
	Schedule       Schedule
	Active         bool
	LastSentAt     time.Time
}

// Recipient returns the contact string for the profile's delivery channel.
func (p SubscriberProfile) Recipient() string {
	if p.Channel == ChannelEmail {
		return p.Email
	}

	if p.TelegramChatID == 0 {
		return ""
	}

	return strconv.FormatInt(p.TelegramChatID, 10)
}

// SourceDocument is a gathered page. Documents are keyed by exact URL.
type SourceDocument struct {
	URL   string
	Title string
	Text  string
}

// CandidateEvent is an untrusted extraction result. Every field may be missing or fabricated,
// so fields are kept as raw JSON values until validation.
type CandidateEvent struct {
	EventName any `json:"event_name"`
	Artists   any `json:"artists"`
	Genres    any `json:"genres"`
	Date      any `json:"date"`
	Venue     any `json:"venue"`
	EventURL  any `json:"event_url"`
}

// ValidatedEvent has every field checked: non-empty trimmed strings, an in-window date
// and a grounded absolute URL.
type ValidatedEvent struct {
	EventName string    `json:"event_name"`
	Artists   []string  `json:"artists"`
	Genres    []string  `json:"genres"`
	Date      string    `json:"date"`
	Venue     string    `json:"venue"`
	EventURL  string    `json:"event_url"`
	StartsAt  time.Time `json:"-"`
}

// TimeWindow is the inclusive date range a run searches in.
type TimeWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t falls inside the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
