// Package grounding builds the allow-list of URLs and hosts that extracted
// events must trace back to.
package grounding

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"{}|\\^\x60\[\]]+`)

// AllowList holds every URL and lower-cased host seen in the gathered sources.
type AllowList struct {
	URLs  map[string]struct{}
	Hosts map[string]struct{}
}

// BuildAllowList seeds the list with each document's own URL and host and
// adds every absolute URL found in document text. Unparsable URLs are skipped.
func BuildAllowList(docs []domain.SourceDocument) AllowList {
	allow := AllowList{
		URLs:  make(map[string]struct{}),
		Hosts: make(map[string]struct{}),
	}

	for _, doc := range docs {
		allow.add(doc.URL)

		for _, match := range urlRegex.FindAllString(doc.Text, -1) {
			allow.add(strings.TrimRight(match, ".,;:!?)'"))
		}
	}

	return allow
}

func (a AllowList) add(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}

	host := Host(rawURL)
	if host == "" {
		return
	}

	a.URLs[rawURL] = struct{}{}
	a.Hosts[host] = struct{}{}
}

// Allows reports whether the exact URL or its host is in the list.
func (a AllowList) Allows(rawURL, host string) bool {
	if _, ok := a.URLs[rawURL]; ok {
		return true
	}

	_, ok := a.Hosts[strings.ToLower(host)]

	return ok
}

// Host returns the lower-cased host of an absolute URL, or "" when the URL
// cannot be parsed or is not absolute.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return ""
	}

	return strings.ToLower(u.Hostname())
}
