package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/conference-catalog-service/internal/domain"
)

// SubmissionRepository persists enriched submissions awaiting admin review.
type SubmissionRepository interface {
	// Create inserts a pending submission. A zero ID is replaced with a new one.
	Create(ctx context.Context, sub *domain.PendingSubmission) error

	// Get retrieves a submission by ID.
	// Returns domain.ErrNotFound if no submission exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error)

	// GetForUpdate retrieves a submission and locks its row until the
	// surrounding transaction ends. Only meaningful on a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error)

	// ListPending returns every pending submission, oldest first.
	ListPending(ctx context.Context) ([]*domain.PendingSubmission, error)

	// UpdatePayload replaces the payload of a pending submission.
	// Returns domain.ErrNotFound if no pending submission has that ID.
	UpdatePayload(ctx context.Context, id uuid.UUID, payload *domain.EnrichedPayload) error

	// UpdateStatus moves a pending submission to status and stamps reviewed_at.
	// Returns domain.ErrNotFound if no pending submission has that ID.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubmissionStatus, reviewedAt time.Time) error

	// DeletePending removes every pending submission and returns how many were deleted.
	DeletePending(ctx context.Context) (int64, error)
}
