package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusEmpty   = "empty"
	StatusSkipped = "skipped"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_digest_runs_total",
		Help: "Pipeline runs by outcome",
	}, []string{"status"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_digest_run_duration_seconds",
		Help:    "Duration of a single subscriber run",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	})

	SourceDocuments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_digest_source_documents",
		Help:    "Number of source documents gathered per run",
		Buckets: []float64{0, 1, 2, 4, 6, 8},
	})

	SearchQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_digest_search_queries_total",
		Help: "Search queries issued by provider and outcome",
	}, []string{"provider", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "event_digest_llm_request_duration_seconds",
		Help:    "Duration of extraction requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	ExtractionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_digest_extraction_errors_total",
		Help: "Extraction failures by kind",
	}, []string{"kind"})

	CandidateDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_digest_candidate_drops_total",
		Help: "Candidate events rejected by the validator, by reason",
	}, []string{"reason"})

	EventsValidated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_digest_events_validated",
		Help:    "Validated events per run",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_digest_deliveries_total",
		Help: "Digest deliveries by channel and outcome",
	}, []string{"channel", "status"})
)
