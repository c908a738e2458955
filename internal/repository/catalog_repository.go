package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/conference-catalog-service/internal/domain"
)

// CatalogRepository persists approved conferences, their papers and authors.
type CatalogRepository interface {
	// CreateConference inserts a conference. A zero ID is replaced with a new one.
	CreateConference(ctx context.Context, conf *domain.Conference) error

	// CreatePaper inserts a paper linked to its conference.
	CreatePaper(ctx context.Context, paper *domain.CatalogPaper) error

	// GetAuthor retrieves an author by ID.
	// Returns domain.ErrNotFound if no author exists.
	GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// FindAuthorByExternalID looks an author up by index identifier.
	// Returns domain.ErrNotFound if none matches.
	FindAuthorByExternalID(ctx context.Context, externalID string) (*domain.Author, error)

	// FindAuthorByName looks an author up by exact name.
	// Returns domain.ErrNotFound if none matches.
	FindAuthorByName(ctx context.Context, name string) (*domain.Author, error)

	// CreateAuthor inserts an author.
	// Returns domain.ErrAlreadyExists if the external ID is already taken.
	CreateAuthor(ctx context.Context, author *domain.Author) error

	// UpdateAuthor saves h-index, external ID, affiliation and last_updated.
	// Returns domain.ErrNotFound if no author exists.
	UpdateAuthor(ctx context.Context, author *domain.Author) error

	// LinkPaperAuthor links a paper and an author. Linking twice is a no-op.
	LinkPaperAuthor(ctx context.Context, paperID, authorID uuid.UUID) error
}
