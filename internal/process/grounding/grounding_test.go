package grounding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

func TestBuildAllowList(t *testing.T) {
	docs := []domain.SourceDocument{
		{
			URL:  "https://Barby.co.il/events",
			Text: "Jazz Night, tickets at https://tickets.example.com/jazz. Also (https://barby.co.il/events/jazz-night)",
		},
		{
			URL:  "not a url",
			Text: "broken http://[::1 link and http://%zz/bad",
		},
	}

	allow := BuildAllowList(docs)

	assert.Contains(t, allow.URLs, "https://Barby.co.il/events")
	assert.Contains(t, allow.URLs, "https://tickets.example.com/jazz")
	assert.Contains(t, allow.URLs, "https://barby.co.il/events/jazz-night")
	assert.Contains(t, allow.Hosts, "barby.co.il")
	assert.Contains(t, allow.Hosts, "tickets.example.com")
	assert.NotContains(t, allow.URLs, "not a url")
	assert.Len(t, allow.Hosts, 2)
}

func TestAllowList_Allows(t *testing.T) {
	allow := BuildAllowList([]domain.SourceDocument{{URL: "https://barby.co.il/events"}})

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "exact url", url: "https://barby.co.il/events", want: true},
		{name: "same host other path", url: "https://barby.co.il/events/jazz-night", want: true},
		{name: "host case insensitive", url: "https://BARBY.co.il/x", want: true},
		{name: "foreign host", url: "https://fake-events.example/jazz", want: false},
		{name: "subdomain is a different host", url: "https://tickets.barby.co.il/x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allow.Allows(tt.url, Host(tt.url)))
		})
	}
}

func TestBuildAllowList_Empty(t *testing.T) {
	allow := BuildAllowList(nil)

	assert.Empty(t, allow.URLs)
	assert.Empty(t, allow.Hosts)
	assert.False(t, allow.Allows("https://barby.co.il", "barby.co.il"))
}
