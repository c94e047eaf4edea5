package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

type emailCard struct {
	Title   string
	Artists string
	Venue   string
	When    string
	Genres  string
	URL     string
}

type emailView struct {
	Subject string
	Name    string
	Empty   string
	Cards   []emailCard
	More    string
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; background: #f5f5f5; padding: 16px;">
<h2 style="margin: 0 0 16px;">Hi {{.Name}}, here are your upcoming events</h2>
{{- if .Empty}}
<p class="empty">{{.Empty}}</p>
{{- end}}
{{- range .Cards}}
<div class="event" style="background: #ffffff; border-radius: 8px; padding: 12px 16px; margin-bottom: 12px;">
<h3 style="margin: 0 0 6px;">{{.Title}}</h3>
{{- if .Artists}}
<p style="margin: 2px 0;">Artists: {{.Artists}}</p>
{{- end}}
<p style="margin: 2px 0;">Venue: {{.Venue}}</p>
<p style="margin: 2px 0;">When: {{.When}}</p>
{{- if .Genres}}
<p class="genres" style="margin: 2px 0;">Genres: {{.Genres}}</p>
{{- end}}
{{- if .URL}}
<p style="margin: 6px 0 0;"><a href="{{.URL}}">Event details</a></p>
{{- end}}
</div>
{{- end}}
{{- if .More}}
<p class="more"><em>{{.More}}</em></p>
{{- end}}
</body>
</html>
`))

// emailTextTemplate renders the text/plain alternative of the same view.
var emailTextTemplate = texttemplate.Must(texttemplate.New("email-text").Parse(`Hi {{.Name}}, here are your upcoming events
{{- if .Empty}}

{{.Empty}}
{{- end}}
{{- range .Cards}}

{{.Title}}
{{- if .Artists}}
Artists: {{.Artists}}
{{- end}}
Venue: {{.Venue}}
When: {{.When}}
{{- if .Genres}}
Genres: {{.Genres}}
{{- end}}
{{- if .URL}}
{{.URL}}
{{- end}}
{{- end}}
{{- if .More}}

{{.More}}
{{- end}}
`))

// renderEmail returns the HTML body and its plain-text alternative.
func renderEmail(name, subject string, events []domain.ValidatedEvent, hidden int) (string, string, error) {
	view := emailView{
		Subject: subject,
		Name:    name,
		Cards:   make([]emailCard, 0, len(events)),
	}

	if len(events) == 0 {
		view.Empty = nothingMatchedText
	}

	for _, e := range events {
		view.Cards = append(view.Cards, emailCard{
			Title:   e.EventName,
			Artists: strings.Join(e.Artists, ", "),
			Venue:   e.Venue,
			When:    formatEventDate(e),
			Genres:  strings.Join(e.Genres, ", "),
			URL:     e.EventURL,
		})
	}

	if hidden > 0 {
		view.More = moreLabel(hidden)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := emailTemplate.Execute(&htmlBuf, view); err != nil {
		return "", "", fmt.Errorf("render email digest: %w", err)
	}

	if err := emailTextTemplate.Execute(&textBuf, view); err != nil {
		return "", "", fmt.Errorf("render email text digest: %w", err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}
