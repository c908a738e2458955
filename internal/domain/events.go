package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants for submission lifecycle events.
const (
	EventTypeSubmissionEnriched = "submission.enriched"
	EventTypeSubmissionApproved = "submission.approved"
	EventTypeSubmissionRejected = "submission.rejected"
)

// SubmissionEvent is published when a submission changes state.
type SubmissionEvent struct {
	EventID        string                 `json:"event_id"`
	EventType      string                 `json:"event_type"`
	SubmissionID   string                 `json:"submission_id"`
	ConferenceName string                 `json:"conference_name"`
	OccurredAt     time.Time              `json:"occurred_at"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// NewSubmissionEvent creates an event for the given submission.
func NewSubmissionEvent(eventType string, submissionID uuid.UUID, conferenceName string, data map[string]interface{}) SubmissionEvent {
	return SubmissionEvent{
		EventID:        uuid.New().String(),
		EventType:      eventType,
		SubmissionID:   submissionID.String(),
		ConferenceName: conferenceName,
		OccurredAt:     time.Now().UTC(),
		Data:           data,
	}
}
