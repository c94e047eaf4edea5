package digest

import (
	"fmt"
	"html"
	"strings"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

func renderTelegram(name string, events []domain.ValidatedEvent, hidden int) string {
	var sb strings.Builder

	sb.WriteString(DigestSeparatorLine)
	fmt.Fprintf(&sb, "🎭 <b>Events for %s</b>\n", html.EscapeString(name))
	sb.WriteString(DigestSeparatorLine)

	if len(events) == 0 {
		sb.WriteString("\n")
		sb.WriteString(html.EscapeString(nothingMatchedText))
		sb.WriteString("\n")

		return sb.String()
	}

	for i, e := range events {
		sb.WriteString("\n")
		writeTelegramEvent(&sb, i+1, e)
	}

	if hidden > 0 {
		fmt.Fprintf(&sb, "\n<i>%s</i>\n", moreLabel(hidden))
	}

	return sb.String()
}

func writeTelegramEvent(sb *strings.Builder, n int, e domain.ValidatedEvent) {
	fmt.Fprintf(sb, "%d. <b>%s</b>\n", n, html.EscapeString(e.EventName))

	if len(e.Artists) > 0 {
		fmt.Fprintf(sb, "🎤 %s\n", html.EscapeString(strings.Join(e.Artists, ", ")))
	}

	fmt.Fprintf(sb, "📍 %s\n", html.EscapeString(e.Venue))
	fmt.Fprintf(sb, "📅 %s\n", html.EscapeString(formatEventDate(e)))

	if len(e.Genres) > 0 {
		fmt.Fprintf(sb, "🎵 %s\n", html.EscapeString(strings.Join(e.Genres, ", ")))
	}

	if e.EventURL != "" {
		fmt.Fprintf(sb, "🔗 <a href=\"%s\">%s</a>\n", html.EscapeString(e.EventURL), linkLabel)
	}
}
