package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the conference catalog service.
// Metrics are organized by subsystem: submissions, author enrichment, caches,
// external sources, classification, ranking, review, and events. All metrics
// are registered via promauto with the default Prometheus registry.
type Metrics struct {
	// SubmissionsReceived counts conference submissions accepted for enrichment.
	SubmissionsReceived prometheus.Counter

	// SubmissionsEnriched counts submissions that were enriched and stored as pending.
	SubmissionsEnriched prometheus.Counter

	// SubmissionsFailed counts submissions rejected by validation or storage errors.
	SubmissionsFailed prometheus.Counter

	// EnrichmentDuration observes end-to-end enrichment time in seconds.
	EnrichmentDuration prometheus.Histogram

	// AuthorResolutions counts author resolutions, labeled by outcome (resolved, not_found, error).
	AuthorResolutions *prometheus.CounterVec

	// CacheLookups counts cache lookups, labeled by cache name and result (hit, miss).
	CacheLookups *prometheus.CounterVec

	// SourceRequestsTotal counts HTTP requests to external sources, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed external requests, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes external request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from external sources, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// Classifications counts classifier runs, labeled by outcome (classified, no_match).
	Classifications *prometheus.CounterVec

	// Ranks counts rank results, labeled by method and rank letter.
	Ranks *prometheus.CounterVec

	// SubmissionsApproved counts submissions promoted into the catalog.
	SubmissionsApproved prometheus.Counter

	// SubmissionsRejected counts submissions rejected by a moderator.
	SubmissionsRejected prometheus.Counter

	// EventsPublished counts submission events, labeled by event type and result (ok, error).
	EventsPublished *prometheus.CounterVec

	// CircuitBreakerState reports breaker state by name (0 closed, 1 half-open, 2 open).
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Submissions
		SubmissionsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_received_total",
			Help:      "Total number of conference submissions received",
		}),
		SubmissionsEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_enriched_total",
			Help:      "Total number of conference submissions enriched and stored for review",
		}),
		SubmissionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_failed_total",
			Help:      "Total number of conference submissions that failed",
		}),
		EnrichmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_duration_seconds",
			Help:      "Duration of submission enrichment in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		// Authors
		AuthorResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "author_resolutions_total",
			Help:      "Total number of author resolutions by outcome",
		}, []string{"outcome"}),

		// Caches
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of cache lookups by cache and result",
		}, []string{"cache", "result"}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of HTTP requests to external sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed HTTP requests to external sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of HTTP requests to external sources in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate-limited responses from external sources",
		}, []string{"source"}),

		// Classification and ranking
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of conference classifications by outcome",
		}, []string{"outcome"}),
		Ranks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranks_total",
			Help:      "Total number of conference ranks by method and rank",
		}, []string{"method", "rank"}),

		// Review
		SubmissionsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_approved_total",
			Help:      "Total number of submissions approved into the catalog",
		}),
		SubmissionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Total number of submissions rejected",
		}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of submission events published by type and result",
		}, []string{"event_type", "result"}),
		CircuitBreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
	}
}

// RecordSubmissionReceived records an accepted submission.
func (m *Metrics) RecordSubmissionReceived() {
	m.SubmissionsReceived.Inc()
}

// RecordSubmissionEnriched records an enriched submission and its duration.
func (m *Metrics) RecordSubmissionEnriched(durationSeconds float64) {
	m.SubmissionsEnriched.Inc()
	m.EnrichmentDuration.Observe(durationSeconds)
}

// RecordSubmissionFailed records a failed submission.
func (m *Metrics) RecordSubmissionFailed() {
	m.SubmissionsFailed.Inc()
}

// RecordAuthorResolution records the outcome of one author resolution.
func (m *Metrics) RecordAuthorResolution(outcome string) {
	m.AuthorResolutions.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordSourceRequest records a request to an external source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to an external source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordClassification records a classifier run.
func (m *Metrics) RecordClassification(outcome string) {
	m.Classifications.WithLabelValues(outcome).Inc()
}

// RecordRank records a rank result.
func (m *Metrics) RecordRank(method, rank string) {
	m.Ranks.WithLabelValues(method, rank).Inc()
}

// RecordApproval records an approved submission.
func (m *Metrics) RecordApproval() {
	m.SubmissionsApproved.Inc()
}

// RecordRejection records a rejected submission.
func (m *Metrics) RecordRejection() {
	m.SubmissionsRejected.Inc()
}

// RecordEventPublished records a publish attempt for a submission event.
func (m *Metrics) RecordEventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}

// RecordCircuitBreakerState records a breaker state transition.
func (m *Metrics) RecordCircuitBreakerState(name string, state float64) {
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}
