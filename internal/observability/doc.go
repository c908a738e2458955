// Package observability provides logging, metrics, and context helpers for
// the conference catalog service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithComponent(logger, "enrichment")
//	logger.Info().Str("conference", name).Msg("enrichment started")
//
// # Metrics
//
//	metrics := observability.NewMetrics("conference_catalog")
//	metrics.RecordAuthorResolution("resolved")
//	metrics.RecordCacheLookup("authors", true)
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - correlation_id: caller-supplied correlation identifier
//   - submission_id: pending submission identifier
//   - conference: conference name
//   - source: external source (semantic_scholar, core)
//   - query: external lookup query
//
// All components are safe for concurrent use from multiple goroutines.
package observability
