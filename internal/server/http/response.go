package httpserver

import (
	"time"

	"github.com/helixir/conference-catalog-service/internal/domain"
)

// Request and response types for JSON serialization.

type updatePendingRequest struct {
	Payload *domain.EnrichedPayload `json:"payload"`
}

type classifyRequest struct {
	Name   string   `json:"name" validate:"required,min=2,max=200"`
	Titles []string `json:"titles" validate:"max=50,dive,max=500"`
}

type rankRequest struct {
	Classification *domain.Classification `json:"classification"`
	Papers         []domain.EnrichedPaper `json:"papers" validate:"max=50"`
}

type pendingResponse struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	Payload     domain.EnrichedPayload `json:"payload"`
	SubmittedAt time.Time              `json:"submitted_at"`
	ReviewedAt  *time.Time             `json:"reviewed_at,omitempty"`
}

type listPendingResponse struct {
	Submissions []pendingResponse `json:"submissions"`
	TotalCount  int               `json:"total_count"`
}

type deleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

type approveResponse struct {
	Message string `json:"message"`
	*domain.ApprovalResult
}

type rejectResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type authorResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HIndex      *int      `json:"h_index"`
	ExternalID  string    `json:"semantic_scholar_id,omitempty"`
	Affiliation string    `json:"affiliation,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

type venuePapersResponse struct {
	Papers []domain.PaperRecord `json:"papers"`
	Count  int                  `json:"count"`
}

// Converter functions

func toPendingResponse(s *domain.PendingSubmission) pendingResponse {
	return pendingResponse{
		ID:          s.ID.String(),
		Type:        string(s.Type),
		Status:      string(s.Status),
		Payload:     s.Payload,
		SubmittedAt: s.SubmittedAt,
		ReviewedAt:  s.ReviewedAt,
	}
}

func toAuthorResponse(a *domain.Author) authorResponse {
	return authorResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		HIndex:      a.HIndex,
		ExternalID:  a.ExternalID,
		Affiliation: a.Affiliation,
		LastUpdated: a.LastUpdated,
	}
}
