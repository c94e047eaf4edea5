// Package digest renders validated events into channel-specific content.
// It does no filtering: every event it receives is trusted.
package digest

import (
	"fmt"
	"strings"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
)

// Content is a rendered digest ready for a Sender.
type Content struct {
	Channel string
	Subject string
	Body    string
	// Text is the plain-text alternative of Body, set for email only.
	Text string
	// Shown is the number of events rendered; Total includes the ones behind "+N more".
	Shown int
	Total int
}

// Empty reports whether the digest is the "nothing matched" variant.
func (c Content) Empty() bool {
	return c.Total == 0
}

// Compose renders events for the channel.
func Compose(channel, recipientName string, events []domain.ValidatedEvent) (Content, error) {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = defaultRecipientName
	}

	subject := subjectWithEvents
	if len(events) == 0 {
		subject = subjectNoEvents
	}

	switch channel {
	case domain.ChannelTelegram:
		shown := min(len(events), TelegramDisplayCap)

		return Content{
			Channel: channel,
			Subject: subject,
			Body:    renderTelegram(name, events[:shown], len(events)-shown),
			Shown:   shown,
			Total:   len(events),
		}, nil
	case domain.ChannelEmail:
		shown := min(len(events), EmailDisplayCap)

		body, text, err := renderEmail(name, subject, events[:shown], len(events)-shown)
		if err != nil {
			return Content{}, err
		}

		return Content{
			Channel: channel,
			Subject: subject,
			Body:    body,
			Text:    text,
			Shown:   shown,
			Total:   len(events),
		}, nil
	default:
		return Content{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownChannel, channel)
	}
}

// formatEventDate prefers the parsed instant and falls back to the raw string.
func formatEventDate(e domain.ValidatedEvent) string {
	if e.StartsAt.IsZero() {
		return e.Date
	}

	if e.StartsAt.Hour() == 0 && e.StartsAt.Minute() == 0 {
		return e.StartsAt.Format(dateFormatDay)
	}

	return e.StartsAt.Format(dateFormatDayTime)
}

func moreLabel(hidden int) string {
	if hidden == 1 {
		return "+1 more event"
	}

	return fmt.Sprintf("+%d more events", hidden)
}
