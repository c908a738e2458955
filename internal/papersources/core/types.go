// Package core provides a client for venue rankings from the CORE API.
//
// Lookups are spaced by a process-wide minimum interval, cached for a fixed
// TTL (including "no data" answers), and guarded by a circuit breaker so an
// outage degrades to "no ranking" without slowing every submission.
//
// API Documentation: https://api.core.ac.uk/docs/v3
package core

// SearchResponse represents the response from the works search endpoint.
type SearchResponse struct {
	// TotalHits is the number of works matching the query.
	TotalHits int `json:"totalHits"`

	// Data contains the matching works; only the first is consumed.
	Data []Work `json:"data"`
}

// Work is a single search hit carrying venue ranking fields.
type Work struct {
	Title         *string `json:"title"`
	Rank          *string `json:"rank"`
	HIndex        *int    `json:"hIndex"`
	CitationCount *int    `json:"citationCount"`
}
