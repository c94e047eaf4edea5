package gather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

const (
	scrapeDefaultTimeout = 45 * time.Second
	scrapeSearchPath     = "/v1/search"
	scrapeFormatMarkdown = "markdown"
	httpHeaderAuth       = "Authorization"
	httpHeaderCType      = "Content-Type"
	httpContentTypeJSON  = "application/json"
	maxErrorBodyLen      = 200
)

var errScrapeAPIError = errors.New("scrape search api error")

// ScrapeSearchConfig configures the scrape-search provider.
type ScrapeSearchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

// ScrapeSearchProvider calls a Firecrawl-compatible search endpoint that
// returns page text with each result.
type ScrapeSearchProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewScrapeSearchProvider(cfg ScrapeSearchConfig) *ScrapeSearchProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = scrapeDefaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	return &ScrapeSearchProvider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: trace.NewHTTPClient(&http.Client{Timeout: timeout}),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (p *ScrapeSearchProvider) Name() ProviderName {
	return ProviderScrape
}

func (p *ScrapeSearchProvider) IsAvailable() bool {
	return p.apiKey != "" && p.baseURL != ""
}

type scrapeSearchRequest struct {
	Query         string              `json:"query"`
	Limit         int                 `json:"limit"`
	ScrapeOptions scrapeSearchOptions `json:"scrapeOptions"` //nolint:tagliatelle // API uses camelCase
}

type scrapeSearchOptions struct {
	Formats []string `json:"formats"`
}

type scrapeSearchResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Data    []scrapeSearchResult `json:"data"`
}

type scrapeSearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Markdown    string `json:"markdown"`
	Text        string `json:"text"`
}

func (p *ScrapeSearchProvider) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("scrape search: %w", apperrors.ErrNotConfigured)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("scrape rate limiter wait: %w", err)
	}

	format := req.Format
	if format == "" || format == FormatText {
		format = scrapeFormatMarkdown
	}

	payload, err := json.Marshal(scrapeSearchRequest{
		Query:         req.Query,
		Limit:         req.ResultLimit,
		ScrapeOptions: scrapeSearchOptions{Formats: []string{format}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+scrapeSearchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}

	httpReq.Header.Set(httpHeaderAuth, "Bearer "+p.apiKey)
	httpReq.Header.Set(httpHeaderCType, httpContentTypeJSON)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scrape request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read scrape response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d %s", apperrors.ErrHTTPStatus, resp.StatusCode, truncateRunes(string(body), maxErrorBodyLen))
	}

	return parseScrapeResponse(body, req.ResultLimit)
}

func parseScrapeResponse(body []byte, limit int) ([]Result, error) {
	var resp scrapeSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse scrape json: %w", err)
	}

	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", errScrapeAPIError, resp.Error)
	}

	results := make([]Result, 0, len(resp.Data))

	for _, item := range resp.Data {
		if limit > 0 && len(results) >= limit {
			break
		}

		results = append(results, Result{
			URL:   strings.TrimSpace(item.URL),
			Title: strings.TrimSpace(item.Title),
			Text:  strings.TrimSpace(coalesce(item.Markdown, item.Text, item.Description)),
		})
	}

	return results, nil
}
