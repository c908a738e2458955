package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helixir/conference-catalog-service/internal/domain"
)

// Compile-time interface verification.
var _ SubmissionRepository = (*PgSubmissionRepository)(nil)

const submissionColumns = `id, submission_type, payload, status, submitted_at, reviewed_at`

// PgSubmissionRepository is a PostgreSQL implementation of SubmissionRepository.
type PgSubmissionRepository struct {
	db DBTX
}

// NewPgSubmissionRepository creates a new PostgreSQL submission repository.
func NewPgSubmissionRepository(db DBTX) *PgSubmissionRepository {
	return &PgSubmissionRepository{db: db}
}

// Create inserts a pending submission.
func (r *PgSubmissionRepository) Create(ctx context.Context, sub *domain.PendingSubmission) error {
	if sub == nil {
		return domain.NewValidationError("submission", "submission cannot be nil")
	}

	payloadJSON, err := json.Marshal(sub.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Type == "" {
		sub.Type = domain.SubmissionTypeNewConference
	}
	if sub.Status == "" {
		sub.Status = domain.SubmissionStatusPending
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pending_submissions (id, submission_type, payload, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(ctx, query, sub.ID, string(sub.Type), payloadJSON, string(sub.Status), sub.SubmittedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("submission", sub.ID.String())
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// Get retrieves a submission by ID.
func (r *PgSubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM pending_submissions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a submission with a row lock.
func (r *PgSubmissionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM pending_submissions WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *PgSubmissionRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.PendingSubmission, error) {
	sub, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("submission", id.String())
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// ListPending returns every pending submission, oldest first.
func (r *PgSubmissionRepository) ListPending(ctx context.Context) ([]*domain.PendingSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM pending_submissions
		WHERE status = $1
		ORDER BY submitted_at ASC`

	rows, err := r.db.Query(ctx, query, string(domain.SubmissionStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*domain.PendingSubmission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return subs, nil
}

// UpdatePayload replaces the payload of a pending submission.
func (r *PgSubmissionRepository) UpdatePayload(ctx context.Context, id uuid.UUID, payload *domain.EnrichedPayload) error {
	if payload == nil {
		return domain.NewValidationError("payload", "payload cannot be nil")
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `UPDATE pending_submissions SET payload = $2 WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, id, payloadJSON, string(domain.SubmissionStatusPending))
	if err != nil {
		return fmt.Errorf("failed to update submission payload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("pending submission", id.String())
	}
	return nil
}

// UpdateStatus moves a pending submission to status.
func (r *PgSubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubmissionStatus, reviewedAt time.Time) error {
	query := `UPDATE pending_submissions SET status = $2, reviewed_at = $3 WHERE id = $1 AND status = $4`
	tag, err := r.db.Exec(ctx, query, id, string(status), reviewedAt, string(domain.SubmissionStatusPending))
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("pending submission", id.String())
	}
	return nil
}

// DeletePending removes every pending submission.
func (r *PgSubmissionRepository) DeletePending(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_submissions WHERE status = $1`, string(domain.SubmissionStatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending submissions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanSubmission scans one pending_submissions row. Both pgx.Row and
// pgx.Rows satisfy the argument.
func scanSubmission(row pgx.Row) (*domain.PendingSubmission, error) {
	var (
		sub         domain.PendingSubmission
		subType     string
		status      string
		payloadJSON []byte
	)
	if err := row.Scan(&sub.ID, &subType, &payloadJSON, &status, &sub.SubmittedAt, &sub.ReviewedAt); err != nil {
		return nil, err
	}
	sub.Type = domain.SubmissionType(subType)
	sub.Status = domain.SubmissionStatus(status)

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &sub.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return &sub, nil
}
