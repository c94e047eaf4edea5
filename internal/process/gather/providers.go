package gather

import (
	"context"
	"net/url"
	"strings"
)

type ProviderName string

const (
	ProviderScrape  ProviderName = "scrape"
	ProviderSearxNG ProviderName = "searxng"
)

// FormatText asks the provider for normalized plain text content.
const FormatText = "text"

// SearchRequest is the provider-independent search call.
type SearchRequest struct {
	Query       string
	ResultLimit int
	Format      string
}

// Result is one search hit with its page text.
type Result struct {
	URL   string
	Title string
	Text  string
}

// Provider is a search/scrape backend. Search must honor ctx and return
// an error for transport failures and non-2xx statuses.
type Provider interface {
	Name() ProviderName
	IsAvailable() bool
	Search(ctx context.Context, req SearchRequest) ([]Result, error)
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen])
}
