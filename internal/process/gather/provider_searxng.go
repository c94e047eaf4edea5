package gather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

const (
	searxngDefaultTimeout     = 30 * time.Second
	searxngSearchPath         = "/search"
	searxngResponseFormatJSON = "json"
	searxngCategoriesGeneral  = "general"
	httpHeaderAccept          = "Accept"
	defaultMaxContentLength   = 20000
)

var errSearxNGAPIError = errors.New("searxng api error")

// PageFetcher downloads a page body.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// SearxNGConfig holds configuration for the SearxNG provider.
type SearxNGConfig struct {
	BaseURL          string
	Timeout          time.Duration
	Engines          []string // optional: e.g., ["google", "duckduckgo", "bing"]
	RPS              float64
	MaxContentLength int
}

// SearxNGProvider searches a SearxNG instance and fetches each hit to get its text.
type SearxNGProvider struct {
	baseURL    string
	httpClient *http.Client
	engines    []string
	limiter    *rate.Limiter
	fetcher    PageFetcher
	maxContent int
	logger     *zerolog.Logger
}

func NewSearxNGProvider(cfg SearxNGConfig, fetcher PageFetcher, logger *zerolog.Logger) *SearxNGProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = searxngDefaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	maxContent := cfg.MaxContentLength
	if maxContent <= 0 {
		maxContent = defaultMaxContentLength
	}

	return &SearxNGProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: trace.NewHTTPClient(&http.Client{Timeout: timeout}),
		engines:    cfg.Engines,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		fetcher:    fetcher,
		maxContent: maxContent,
		logger:     logger,
	}
}

func (p *SearxNGProvider) Name() ProviderName {
	return ProviderSearxNG
}

func (p *SearxNGProvider) IsAvailable() bool {
	return p.baseURL != "" && p.fetcher != nil
}

func (p *SearxNGProvider) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("searxng: %w", apperrors.ErrNotConfigured)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("searxng rate limiter wait: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(req.Query), nil)
	if err != nil {
		return nil, fmt.Errorf("create searxng request: %w", err)
	}

	// SearxNG requires Accept header for JSON responses
	httpReq.Header.Set(httpHeaderAccept, httpContentTypeJSON)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: searxng %d", apperrors.ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read searxng response: %w", err)
	}

	hits, err := parseSearxNGResponse(body, req.ResultLimit)
	if err != nil {
		return nil, err
	}

	return p.fetchPages(ctx, hits), nil
}

// fetchPages downloads each hit. A page that cannot be fetched keeps the
// search snippet as its text.
func (p *SearxNGProvider) fetchPages(ctx context.Context, hits []searxngResult) []Result {
	results := make([]Result, 0, len(hits))

	for _, hit := range hits {
		result := Result{URL: hit.URL, Title: hit.Title, Text: strings.TrimSpace(hit.Content)}

		body, err := p.fetcher.Fetch(ctx, hit.URL)
		if err != nil {
			if p.logger != nil {
				p.logger.Debug().Err(err).Str("url", hit.URL).Msg("searxng page fetch failed, using snippet")
			}

			results = append(results, result)

			continue
		}

		page := ExtractText(body, hit.URL, p.maxContent)
		if page.Text != "" {
			result.Text = page.Text
		}

		if result.Title == "" {
			result.Title = page.Title
		}

		results = append(results, result)
	}

	return results
}

func (p *SearxNGProvider) buildSearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", searxngResponseFormatJSON)
	params.Set("categories", searxngCategoriesGeneral)

	if len(p.engines) > 0 {
		params.Set("engines", strings.Join(p.engines, ","))
	}

	return p.baseURL + searxngSearchPath + "?" + params.Encode()
}

type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Engine  string  `json:"engine"`
	Score   float64 `json:"score"`
}

func parseSearxNGResponse(body []byte, maxResults int) ([]searxngResult, error) {
	if len(body) > 0 && body[0] != '{' && body[0] != '[' {
		// Not JSON, likely an error message or HTML page from SearxNG
		return nil, fmt.Errorf("%w: %s", errSearxNGAPIError, truncateRunes(string(body), maxErrorBodyLen))
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse searxng json: %w", err)
	}

	results := make([]searxngResult, 0, min(len(resp.Results), max(maxResults, 0)))

	for _, item := range resp.Results {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}

		if item.URL == "" {
			continue
		}

		results = append(results, item)
	}

	return results, nil
}
