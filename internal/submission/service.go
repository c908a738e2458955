// Package submission implements the submission lifecycle: intake of new
// conference submissions and their admin review, approval into the catalog,
// or rejection.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/events"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
	"github.com/helixir/conference-catalog-service/internal/repository"
)

// Enricher turns a raw submission into an enriched payload.
type Enricher interface {
	Enrich(ctx context.Context, sub *domain.Submission) (*domain.EnrichedPayload, error)
}

// Ranker computes a conference rank from a classification and its papers.
type Ranker interface {
	Rank(ctx context.Context, cls *domain.Classification, papers []domain.EnrichedPaper) *domain.RankResult
}

// CacheClearer drops cached lookups.
type CacheClearer interface {
	ClearCache()
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Stores groups the repositories bound to one connection or transaction.
type Stores struct {
	Submissions repository.SubmissionRepository
	Catalog     repository.CatalogRepository
}

// StoresFactory binds repositories to db.
type StoresFactory func(db repository.DBTX) Stores

// PgStores binds the PostgreSQL repositories to db.
func PgStores(db repository.DBTX) Stores {
	return Stores{
		Submissions: repository.NewPgSubmissionRepository(db),
		Catalog:     repository.NewPgCatalogRepository(db),
	}
}

// Deps holds the collaborators of a Service.
type Deps struct {
	DB        TxRunner
	Pool      repository.DBTX
	Stores    StoresFactory
	Enricher  Enricher
	Ranker    Ranker
	Authors   papersources.AuthorIndex
	Caches    []CacheClearer
	Publisher events.Publisher
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
}

// Service implements the submission intake and admin review operations.
type Service struct {
	db        TxRunner
	stores    StoresFactory
	base      Stores
	enricher  Enricher
	ranker    Ranker
	authors   papersources.AuthorIndex
	caches    []CacheClearer
	publisher events.Publisher
	logger    zerolog.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService creates a submission service. A nil Stores factory defaults to
// PgStores and a nil Publisher to events.NoopPublisher.
func NewService(deps Deps) *Service {
	stores := deps.Stores
	if stores == nil {
		stores = PgStores
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:        deps.DB,
		stores:    stores,
		base:      stores(deps.Pool),
		enricher:  deps.Enricher,
		ranker:    deps.Ranker,
		authors:   deps.Authors,
		caches:    deps.Caches,
		publisher: publisher,
		logger:    deps.Logger.With().Str("component", "submission_service").Logger(),
		metrics:   deps.Metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ---------------------------------------------------------------------------
// Intake
// ---------------------------------------------------------------------------

// Submit enriches a raw submission and stores it for admin review.
func (s *Service) Submit(ctx context.Context, sub *domain.Submission) (*domain.PendingSubmission, error) {
	if s.metrics != nil {
		s.metrics.RecordSubmissionReceived()
	}
	if sub == nil {
		return nil, domain.NewValidationError("submission", "submission is required")
	}

	payload, err := s.enricher.Enrich(ctx, sub)
	if err != nil {
		return nil, err
	}

	pending := &domain.PendingSubmission{
		ID:          uuid.New(),
		Type:        domain.SubmissionTypeNewConference,
		Payload:     *payload,
		Status:      domain.SubmissionStatusPending,
		SubmittedAt: s.now(),
	}
	if err := s.base.Submissions.Create(ctx, pending); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", pending.ID.String()).
		Str("conference", payload.Name).
		Int("papers", len(payload.Papers)).
		Int("authors_resolved", payload.EnrichmentStatus.AuthorsResolved).
		Msg("submission stored for review")

	s.publish(ctx, domain.EventTypeSubmissionEnriched, pending.ID, payload.Name, map[string]interface{}{
		"authors_total":    payload.EnrichmentStatus.AuthorsTotal,
		"authors_resolved": payload.EnrichmentStatus.AuthorsResolved,
	})
	return pending, nil
}

// ---------------------------------------------------------------------------
// Pending queue
// ---------------------------------------------------------------------------

// ListPending returns every pending submission, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*domain.PendingSubmission, error) {
	return s.base.Submissions.ListPending(ctx)
}

// GetPending returns one submission regardless of its status.
func (s *Service) GetPending(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error) {
	return s.base.Submissions.Get(ctx, id)
}

// UpdatePending replaces the payload of a pending submission.
func (s *Service) UpdatePending(ctx context.Context, id uuid.UUID, payload *domain.EnrichedPayload) (*domain.PendingSubmission, error) {
	if payload == nil {
		return nil, domain.NewValidationError("payload", "payload is required")
	}

	sub, err := s.base.Submissions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsPending() {
		return nil, domain.NewStateError("submission", id.String(), string(sub.Status), "can only update pending submissions")
	}
	if err := s.base.Submissions.UpdatePayload(ctx, id, payload); err != nil {
		return nil, err
	}

	sub.Payload = *payload
	return sub, nil
}

// DeleteAllPending removes every pending submission.
func (s *Service) DeleteAllPending(ctx context.Context) (int64, error) {
	n, err := s.base.Submissions.DeletePending(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", n).Msg("deleted pending submissions")
	return n, nil
}

// RecomputeRank ranks a pending submission from its stored classification
// and papers and saves the result on its payload.
func (s *Service) RecomputeRank(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error) {
	sub, err := s.base.Submissions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsPending() {
		return nil, domain.NewStateError("submission", id.String(), string(sub.Status), "can only rank pending submissions")
	}

	sub.Payload.Rank = s.ranker.Rank(ctx, sub.Payload.Classification, sub.Payload.Papers)
	sub.Payload.RankStatus = domain.StageStatus{Status: domain.StageStatusOK}

	if err := s.base.Submissions.UpdatePayload(ctx, id, &sub.Payload); err != nil {
		return nil, err
	}
	return sub, nil
}

// ---------------------------------------------------------------------------
// Review
// ---------------------------------------------------------------------------

// Approve promotes a pending submission into the catalog. The conference,
// its papers and authors, and the status change commit together.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*domain.ApprovalResult, error) {
	var (
		result *domain.ApprovalResult
		name   string
	)

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		stores := s.stores(tx)

		sub, err := lockPending(ctx, stores, id, "submission already processed")
		if err != nil {
			return err
		}
		name = sub.Payload.Name

		result, err = s.promote(ctx, stores.Catalog, sub)
		if err != nil {
			return err
		}
		return stores.Submissions.UpdateStatus(ctx, id, domain.SubmissionStatusApproved, s.now())
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordApproval()
	}
	s.logger.Info().
		Str("submission_id", id.String()).
		Str("conference_id", result.ConferenceID.String()).
		Int("authors_processed", len(result.AuthorsProcessed)).
		Msg("submission approved")

	s.publish(ctx, domain.EventTypeSubmissionApproved, id, name, map[string]interface{}{
		"conference_id":     result.ConferenceID.String(),
		"authors_processed": len(result.AuthorsProcessed),
	})
	return result, nil
}

// Reject marks a pending submission rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	var name string
	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		stores := s.stores(tx)

		sub, err := lockPending(ctx, stores, id, "submission already processed")
		if err != nil {
			return err
		}
		name = sub.Payload.Name
		return stores.Submissions.UpdateStatus(ctx, id, domain.SubmissionStatusRejected, s.now())
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordRejection()
	}
	s.logger.Info().Str("submission_id", id.String()).Msg("submission rejected")

	s.publish(ctx, domain.EventTypeSubmissionRejected, id, name, nil)
	return nil
}

func lockPending(ctx context.Context, stores Stores, id uuid.UUID, msg string) (*domain.PendingSubmission, error) {
	sub, err := stores.Submissions.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsPending() {
		return nil, domain.NewStateError("submission", id.String(), string(sub.Status), msg)
	}
	return sub, nil
}

// promote writes the conference, papers and authors of sub.
func (s *Service) promote(ctx context.Context, catalog repository.CatalogRepository, sub *domain.PendingSubmission) (*domain.ApprovalResult, error) {
	payload := &sub.Payload

	titles := make([]string, 0, len(payload.Papers))
	for _, p := range payload.Papers {
		titles = append(titles, p.Title)
	}

	conf := &domain.Conference{
		Name:              payload.Name,
		Organizers:        payload.Organizers,
		Location:          payload.Location,
		FeaturedPapers:    titles,
		FeaturedWorkshops: payload.FeaturedWorkshops,
		Classification:    payload.Classification,
		Rank:              payload.Rank,
		CreatedAt:         s.now(),
	}
	if err := catalog.CreateConference(ctx, conf); err != nil {
		return nil, err
	}

	result := &domain.ApprovalResult{
		SubmissionID:     sub.ID,
		ConferenceID:     conf.ID,
		AuthorsProcessed: make([]domain.ProcessedAuthor, 0),
	}

	for _, p := range payload.Papers {
		paper := &domain.CatalogPaper{ConferenceID: conf.ID, Title: p.Title}
		if err := catalog.CreatePaper(ctx, paper); err != nil {
			return nil, err
		}

		for _, entry := range authorEntries(p) {
			author, processed, err := s.upsertAuthor(ctx, catalog, entry)
			if err != nil {
				return nil, fmt.Errorf("author %q: %w", entry.Name, err)
			}
			if err := catalog.LinkPaperAuthor(ctx, paper.ID, author.ID); err != nil {
				return nil, err
			}
			result.AuthorsProcessed = append(result.AuthorsProcessed, processed)
		}
	}
	return result, nil
}

// authorEntries returns the enriched authors of p, or stubs built from its
// raw names when no enrichment was stored.
func authorEntries(p domain.EnrichedPaper) []domain.EnrichedAuthor {
	if len(p.EnrichedAuthors) > 0 {
		return p.EnrichedAuthors
	}
	entries := make([]domain.EnrichedAuthor, 0, len(p.Authors))
	for _, name := range p.Authors {
		entries = append(entries, domain.EnrichedAuthor{Name: name})
	}
	return entries
}

// upsertAuthor matches entry to a catalog author by external ID, then by
// exact name. A match keeps the higher h-index and gains any missing
// external ID or affiliation; no match creates a new author.
func (s *Service) upsertAuthor(ctx context.Context, catalog repository.CatalogRepository, entry domain.EnrichedAuthor) (*domain.Author, domain.ProcessedAuthor, error) {
	existing, err := findAuthor(ctx, catalog, entry)
	if err != nil {
		return nil, domain.ProcessedAuthor{}, err
	}

	if existing == nil {
		author := &domain.Author{
			Name:        strings.TrimSpace(entry.Name),
			HIndex:      entry.HIndex,
			ExternalID:  entry.ExternalID,
			Affiliation: entry.Affiliation,
			LastUpdated: s.now(),
		}
		if err := catalog.CreateAuthor(ctx, author); err != nil {
			return nil, domain.ProcessedAuthor{}, err
		}
		return author, domain.ProcessedAuthor{Name: author.Name, HIndex: author.HIndex, Created: true}, nil
	}

	mergeAuthor(existing, entry)
	existing.LastUpdated = s.now()
	if err := catalog.UpdateAuthor(ctx, existing); err != nil {
		return nil, domain.ProcessedAuthor{}, err
	}
	return existing, domain.ProcessedAuthor{Name: existing.Name, HIndex: existing.HIndex, Updated: true}, nil
}

func findAuthor(ctx context.Context, catalog repository.CatalogRepository, entry domain.EnrichedAuthor) (*domain.Author, error) {
	if entry.ExternalID != "" {
		author, err := catalog.FindAuthorByExternalID(ctx, entry.ExternalID)
		if err == nil {
			return author, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	author, err := catalog.FindAuthorByName(ctx, strings.TrimSpace(entry.Name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return author, nil
}

// mergeAuthor folds entry into existing without discarding known data.
func mergeAuthor(existing *domain.Author, entry domain.EnrichedAuthor) {
	if entry.HIndex != nil && (existing.HIndex == nil || *entry.HIndex > *existing.HIndex) {
		h := *entry.HIndex
		existing.HIndex = &h
	}
	if existing.ExternalID == "" && entry.ExternalID != "" {
		existing.ExternalID = entry.ExternalID
	}
	if existing.Affiliation == "" && entry.Affiliation != "" {
		existing.Affiliation = entry.Affiliation
	}
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// RefreshAuthor re-resolves a catalog author by name and stores the fresh
// h-index, external ID and affiliation.
func (s *Service) RefreshAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	author, err := s.base.Catalog.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved, err := s.authors.ResolveAuthor(ctx, author.Name)
	if err != nil {
		return nil, err
	}

	if resolved.HIndex != nil {
		h := *resolved.HIndex
		author.HIndex = &h
	}
	if resolved.ExternalID != "" {
		author.ExternalID = resolved.ExternalID
	}
	if resolved.Affiliation != "" {
		author.Affiliation = resolved.Affiliation
	}
	author.LastUpdated = s.now()

	if err := s.base.Catalog.UpdateAuthor(ctx, author); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("author_id", id.String()).
		Int("h_index", h).
		Msg("author refreshed")
	return author, nil
}

// ClearCaches drops every cached bibliometric and ranking lookup.
func (s *Service) ClearCaches() {
	for _, c := range s.caches {
		c.ClearCache()
	}
	s.logger.Info().Int("caches", len(s.caches)).Msg("caches cleared")
}

// publish emits an event. Failures are already logged by the publisher and
// never fail the calling operation.
func (s *Service) publish(ctx context.Context, eventType string, id uuid.UUID, name string, data map[string]interface{}) {
	_ = s.publisher.Publish(ctx, domain.NewSubmissionEvent(eventType, id, name, data))
}
