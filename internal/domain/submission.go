package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission is a user-submitted conference record awaiting enrichment.
type Submission struct {
	Name              string           `json:"name" validate:"required,min=2,max=200"`
	Organizers        string           `json:"organizers" validate:"required,max=1000"`
	Location          string           `json:"location" validate:"required,max=500"`
	Papers            []SubmittedPaper `json:"papers" validate:"required,min=1,max=50,dive"`
	FeaturedWorkshops string           `json:"featured_workshops" validate:"required,max=2000"`
}

// SubmittedPaper is one paper of a submission with raw author name strings.
type SubmittedPaper struct {
	Title   string   `json:"title" validate:"required,min=3,max=500"`
	Authors []string `json:"authors" validate:"required,min=1,max=100,dive,min=2,max=200"`
}

// Titles returns the paper titles in submission order.
func (s *Submission) Titles() []string {
	titles := make([]string, len(s.Papers))
	for i, p := range s.Papers {
		titles[i] = p.Title
	}
	return titles
}

// EnrichedPaper is a submitted paper with its per-author enrichment.
type EnrichedPaper struct {
	Title           string           `json:"title"`
	Authors         []string         `json:"authors"`
	EnrichedAuthors []EnrichedAuthor `json:"enriched_authors"`
}

// Stage status values.
const (
	StageStatusOK      = "ok"
	StageStatusNoMatch = "no_match"
	StageStatusError   = "error"
	StageStatusSkipped = "skipped"
)

// StageStatus reports the outcome of an optional enrichment stage.
type StageStatus struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// EnrichmentStatus summarizes per-author enrichment outcomes.
type EnrichmentStatus struct {
	AuthorsTotal    int       `json:"authors_total"`
	AuthorsResolved int       `json:"authors_resolved"`
	AuthorsNotFound int       `json:"authors_not_found"`
	AuthorsFailed   int       `json:"authors_failed"`
	Warnings        []string  `json:"warnings,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// EnrichedPayload is the enriched submission persisted as a pending record.
type EnrichedPayload struct {
	Name                 string           `json:"name"`
	Organizers           string           `json:"organizers"`
	Location             string           `json:"location"`
	FeaturedWorkshops    string           `json:"featured_workshops"`
	Papers               []EnrichedPaper  `json:"papers"`
	Classification       *Classification  `json:"classification"`
	ClassificationStatus StageStatus      `json:"classification_status"`
	Rank                 *RankResult      `json:"rank"`
	RankStatus           StageStatus      `json:"rank_status"`
	EnrichmentStatus     EnrichmentStatus `json:"enrichment_status"`
}

// SubmissionType identifies what a pending submission asks for.
type SubmissionType string

const (
	SubmissionTypeNewConference SubmissionType = "new_conference"
)

// SubmissionStatus is the review state of a pending submission.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// PendingSubmission is an enriched submission awaiting admin review.
type PendingSubmission struct {
	ID          uuid.UUID
	Type        SubmissionType
	Payload     EnrichedPayload
	Status      SubmissionStatus
	SubmittedAt time.Time
	ReviewedAt  *time.Time
}

// IsPending reports whether the submission can still be edited or reviewed.
func (p *PendingSubmission) IsPending() bool {
	return p.Status == SubmissionStatusPending
}
