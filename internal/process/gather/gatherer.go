// Package gather collects source documents for one subscriber run from a
// search/scrape provider. Gathering is best-effort: it never fails a run.
package gather

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

const (
	// ResultsPerQuery bounds each provider call.
	ResultsPerQuery = 3
	// MaxDocuments caps the gathered set.
	MaxDocuments = 8
)

// Gatherer runs the per-venue queries concurrently against a provider.
type Gatherer struct {
	provider Provider
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewGatherer(provider Provider, logger *zerolog.Logger) *Gatherer {
	return &Gatherer{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Gather returns at most MaxDocuments documents with distinct URLs and non-empty text.
// A missing provider credential or a failing query yields fewer documents, not an error.
func (g *Gatherer) Gather(ctx context.Context, profile domain.SubscriberProfile, cat *catalog.Catalog) []domain.SourceDocument {
	logger := trace.Logger(ctx, g.logger)

	if g.provider == nil || !g.provider.IsAvailable() {
		logger.Warn().Msg("search provider not configured, gathering nothing")
		observability.SearchQueriesTotal.WithLabelValues("none", observability.StatusSkipped).Inc()

		return nil
	}

	queries := BuildQueries(profile, cat, g.now().UTC().Year())
	perQuery := make([][]Result, len(queries))

	// Errors never reach the group: a failed query stays empty and siblings keep running.
	var eg errgroup.Group

	for i, query := range queries {
		eg.Go(func() error {
			perQuery[i] = g.runQuery(ctx, logger, query)
			return nil
		})
	}

	_ = eg.Wait()

	docs := mergeResults(perQuery)

	logger.Info().
		Int("query_count", len(queries)).
		Int("source_count", len(docs)).
		Str("provider", string(g.provider.Name())).
		Msg("gathered source documents")

	return docs
}

func (g *Gatherer) runQuery(ctx context.Context, logger *zerolog.Logger, query string) []Result {
	provider := string(g.provider.Name())

	results, err := g.provider.Search(ctx, SearchRequest{
		Query:       query,
		ResultLimit: ResultsPerQuery,
		Format:      FormatText,
	})
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Str("provider", provider).Msg("search query failed")
		observability.SearchQueriesTotal.WithLabelValues(provider, observability.StatusError).Inc()

		return nil
	}

	status := observability.StatusOK
	if len(results) == 0 {
		status = observability.StatusEmpty
	}

	observability.SearchQueriesTotal.WithLabelValues(provider, status).Inc()

	return results
}

// mergeResults flattens per-query results in query order, drops results
// without a URL or text, keeps the first occurrence of each exact URL and caps the set.
func mergeResults(perQuery [][]Result) []domain.SourceDocument {
	seen := make(map[string]bool)
	docs := make([]domain.SourceDocument, 0, MaxDocuments)

	for _, results := range perQuery {
		for _, r := range results {
			u := strings.TrimSpace(r.URL)
			text := strings.TrimSpace(r.Text)

			if u == "" || text == "" || seen[u] {
				continue
			}

			seen[u] = true
			docs = append(docs, domain.SourceDocument{URL: u, Title: r.Title, Text: text})

			if len(docs) == MaxDocuments {
				return docs
			}
		}
	}

	return docs
}
