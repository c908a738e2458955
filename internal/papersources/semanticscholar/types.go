// Package semanticscholar provides a client for the Semantic Scholar Graph API.
//
// The client resolves free-text author names to index records, fetches author
// records by identifier, and searches papers by venue name. Results are cached
// in memory for the process lifetime.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// AuthorSearchResponse represents the response from the author search endpoint.
type AuthorSearchResponse struct {
	// Total is the total number of authors matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Data contains the author candidates in relevance order.
	Data []AuthorResult `json:"data"`
}

// AuthorResult represents a single author record.
type AuthorResult struct {
	// AuthorID is the Semantic Scholar unique identifier for the author.
	AuthorID string `json:"authorId"`

	// Name is the author's display name.
	Name string `json:"name"`

	// HIndex is the author's h-index; absent for some records.
	HIndex *int `json:"hIndex"`

	// Affiliations lists the author's affiliations, primary first.
	Affiliations []string `json:"affiliations"`

	// CitationCount is the author's total citation count; absent for some records.
	CitationCount *int `json:"citationCount"`
}

// PaperSearchResponse represents the response from the paper search endpoint.
type PaperSearchResponse struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Next   int           `json:"next"`
	Data   []PaperResult `json:"data"`
}

// PaperResult represents a single paper in a search response. Optional
// fields are pointers so that absent and null values can be defaulted.
type PaperResult struct {
	PaperID       string   `json:"paperId"`
	Title         *string  `json:"title"`
	Abstract      *string  `json:"abstract"`
	Year          *int     `json:"year"`
	Venue         *string  `json:"venue"`
	Authors       []Author `json:"authors"`
	CitationCount *int     `json:"citationCount"`
}

// Author represents a paper author stub.
type Author struct {
	AuthorID *string `json:"authorId"`
	Name     *string `json:"name"`
}

// ErrorResponse represents an error response from the Semantic Scholar API.
type ErrorResponse struct {
	// Error is the error message from the API.
	Error string `json:"error,omitempty"`

	// Message is an alternative error message field.
	Message string `json:"message,omitempty"`
}
