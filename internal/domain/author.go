// Package domain provides domain models and errors for the conference catalog service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthorCandidate is one author record returned by the bibliometric index for a name query.
type AuthorCandidate struct {
	ExternalID    string
	Name          string
	HIndex        *int
	Affiliations  []string
	CitationCount *int
}

// HIndexOrZero returns the candidate's h-index, treating unknown as 0.
func (c AuthorCandidate) HIndexOrZero() int {
	if c.HIndex == nil {
		return 0
	}
	return *c.HIndex
}

// ResolvedAuthor is the best-matching index record for a submitted author name.
// HIndex is nil when the index has no h-index for the record.
type ResolvedAuthor struct {
	Name            string  `json:"name"`
	HIndex          *int    `json:"h_index"`
	ExternalID      string  `json:"semantic_scholar_id"`
	Affiliation     string  `json:"affiliation,omitempty"`
	CitationCount   int     `json:"citation_count"`
	MatchConfidence float64 `json:"match_confidence"`
}

// Author notes attached to stub entries.
const (
	AuthorNoteNotFound = "Not found in Semantic Scholar"
)

// EnrichedAuthor is one entry of a paper's enriched author list. It is either a
// full resolution (ExternalID set) or a stub carrying a note or an error.
// HIndex is always serialized so stubs carry an explicit null.
type EnrichedAuthor struct {
	Name            string   `json:"name"`
	HIndex          *int     `json:"h_index"`
	ExternalID      string   `json:"semantic_scholar_id,omitempty"`
	Affiliation     string   `json:"affiliation,omitempty"`
	CitationCount   *int     `json:"citation_count,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty"`
	Note            string   `json:"note,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// EnrichedFromResolved builds a full entry from a resolution.
func EnrichedFromResolved(a *ResolvedAuthor) EnrichedAuthor {
	var h *int
	if a.HIndex != nil {
		v := *a.HIndex
		h = &v
	}
	citations := a.CitationCount
	confidence := a.MatchConfidence
	return EnrichedAuthor{
		Name:            a.Name,
		HIndex:          h,
		ExternalID:      a.ExternalID,
		Affiliation:     a.Affiliation,
		CitationCount:   &citations,
		MatchConfidence: &confidence,
	}
}

// NotFoundAuthor builds a stub for a name the index had no match for.
func NotFoundAuthor(name string) EnrichedAuthor {
	return EnrichedAuthor{Name: name, Note: AuthorNoteNotFound}
}

// FailedAuthor builds a stub for a name whose resolution raised an error.
func FailedAuthor(name string, err error) EnrichedAuthor {
	return EnrichedAuthor{Name: name, Error: err.Error()}
}

// Resolved reports whether the entry came from a successful resolution.
func (a EnrichedAuthor) Resolved() bool {
	return a.ExternalID != "" && a.Error == "" && a.Note == ""
}

// Author is a persisted catalog author.
type Author struct {
	ID          uuid.UUID
	Name        string
	HIndex      *int
	ExternalID  string
	Affiliation string
	LastUpdated time.Time
}
