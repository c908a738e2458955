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
var _ CatalogRepository = (*PgCatalogRepository)(nil)

const authorColumns = `id, name, h_index, external_id, affiliation, last_updated`

// PgCatalogRepository is a PostgreSQL implementation of CatalogRepository.
type PgCatalogRepository struct {
	db DBTX
}

// NewPgCatalogRepository creates a new PostgreSQL catalog repository.
func NewPgCatalogRepository(db DBTX) *PgCatalogRepository {
	return &PgCatalogRepository{db: db}
}

// CreateConference inserts a conference.
func (r *PgCatalogRepository) CreateConference(ctx context.Context, conf *domain.Conference) error {
	if conf == nil {
		return domain.NewValidationError("conference", "conference cannot be nil")
	}
	if conf.Name == "" {
		return domain.NewValidationError("name", "conference name is required")
	}

	featuredJSON, err := json.Marshal(nonNilStrings(conf.FeaturedPapers))
	if err != nil {
		return fmt.Errorf("failed to marshal featured papers: %w", err)
	}
	classificationJSON, err := marshalNullable(conf.Classification)
	if err != nil {
		return fmt.Errorf("failed to marshal classification: %w", err)
	}
	rankJSON, err := marshalNullable(conf.Rank)
	if err != nil {
		return fmt.Errorf("failed to marshal rank: %w", err)
	}

	if conf.ID == uuid.Nil {
		conf.ID = uuid.New()
	}
	if conf.CreatedAt.IsZero() {
		conf.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conferences (
			id, name, organizers, location, featured_papers, featured_workshops,
			classification, rank, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		conf.ID,
		conf.Name,
		conf.Organizers,
		conf.Location,
		featuredJSON,
		conf.FeaturedWorkshops,
		classificationJSON,
		rankJSON,
		conf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conference: %w", err)
	}
	return nil
}

// CreatePaper inserts a paper.
func (r *PgCatalogRepository) CreatePaper(ctx context.Context, paper *domain.CatalogPaper) error {
	if paper == nil {
		return domain.NewValidationError("paper", "paper cannot be nil")
	}
	if paper.ID == uuid.Nil {
		paper.ID = uuid.New()
	}

	query := `INSERT INTO papers (id, conference_id, title) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, paper.ID, paper.ConferenceID, paper.Title); err != nil {
		return fmt.Errorf("failed to create paper: %w", err)
	}
	return nil
}

// GetAuthor retrieves an author by ID.
func (r *PgCatalogRepository) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`
	return r.findAuthor(ctx, query, id, id.String())
}

// FindAuthorByExternalID looks an author up by index identifier.
func (r *PgCatalogRepository) FindAuthorByExternalID(ctx context.Context, externalID string) (*domain.Author, error) {
	if externalID == "" {
		return nil, domain.NewNotFoundError("author", externalID)
	}
	query := `SELECT ` + authorColumns + ` FROM authors WHERE external_id = $1`
	return r.findAuthor(ctx, query, externalID, externalID)
}

// FindAuthorByName looks an author up by exact name. The oldest match wins
// when names collide.
func (r *PgCatalogRepository) FindAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE name = $1 ORDER BY last_updated ASC LIMIT 1`
	return r.findAuthor(ctx, query, name, name)
}

func (r *PgCatalogRepository) findAuthor(ctx context.Context, query string, arg interface{}, key string) (*domain.Author, error) {
	author, err := scanAuthor(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("author", key)
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return author, nil
}

// CreateAuthor inserts an author.
func (r *PgCatalogRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	if author == nil {
		return domain.NewValidationError("author", "author cannot be nil")
	}
	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	if author.LastUpdated.IsZero() {
		author.LastUpdated = time.Now().UTC()
	}

	query := `
		INSERT INTO authors (id, name, h_index, external_id, affiliation, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		author.ID,
		author.Name,
		author.HIndex,
		nullString(author.ExternalID),
		author.Affiliation,
		author.LastUpdated,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("author", author.ExternalID)
		}
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

// UpdateAuthor saves an author's mutable fields.
func (r *PgCatalogRepository) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	if author == nil {
		return domain.NewValidationError("author", "author cannot be nil")
	}

	query := `
		UPDATE authors
		SET h_index = $2, external_id = $3, affiliation = $4, last_updated = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		author.ID,
		author.HIndex,
		nullString(author.ExternalID),
		author.Affiliation,
		author.LastUpdated,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("author", author.ExternalID)
		}
		return fmt.Errorf("failed to update author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("author", author.ID.String())
	}
	return nil
}

// LinkPaperAuthor links a paper and an author.
func (r *PgCatalogRepository) LinkPaperAuthor(ctx context.Context, paperID, authorID uuid.UUID) error {
	query := `
		INSERT INTO paper_authors (paper_id, author_id)
		VALUES ($1, $2)
		ON CONFLICT (paper_id, author_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, paperID, authorID); err != nil {
		return fmt.Errorf("failed to link paper author: %w", err)
	}
	return nil
}

func scanAuthor(row pgx.Row) (*domain.Author, error) {
	var (
		author     domain.Author
		externalID *string
	)
	if err := row.Scan(&author.ID, &author.Name, &author.HIndex, &externalID, &author.Affiliation, &author.LastUpdated); err != nil {
		return nil, err
	}
	if externalID != nil {
		author.ExternalID = *externalID
	}
	return &author, nil
}

// marshalNullable encodes v as JSON, or returns nil for a nil pointer so the
// column stays NULL.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
