package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conference is a persisted catalog conference created from an approved submission.
type Conference struct {
	ID                uuid.UUID
	Name              string
	Organizers        string
	Location          string
	FeaturedPapers    []string
	FeaturedWorkshops string
	Classification    *Classification
	Rank              *RankResult
	CreatedAt         time.Time
}

// CatalogPaper is a persisted paper linked to a conference.
type CatalogPaper struct {
	ID           uuid.UUID
	ConferenceID uuid.UUID
	Title        string
}

// ProcessedAuthor records what approval did with one author entry.
type ProcessedAuthor struct {
	Name    string `json:"name"`
	HIndex  *int   `json:"h_index"`
	Created bool   `json:"created,omitempty"`
	Updated bool   `json:"updated,omitempty"`
}

// ApprovalResult is returned after promoting a pending submission.
type ApprovalResult struct {
	SubmissionID     uuid.UUID         `json:"submission_id"`
	ConferenceID     uuid.UUID         `json:"conference_id"`
	AuthorsProcessed []ProcessedAuthor `json:"authors_processed"`
}
