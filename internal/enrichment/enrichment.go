// Package enrichment sequences author resolution, field classification and
// ranking for one conference submission.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
)

// Author resolution outcomes recorded in metrics.
const (
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// FieldClassifier places a conference in the research field taxonomy.
type FieldClassifier interface {
	Classify(conferenceName string, titles []string) (*domain.Classification, error)
}

// Ranker produces a conference rank. It never fails.
type Ranker interface {
	Rank(ctx context.Context, cls *domain.Classification, papers []domain.EnrichedPaper) *domain.RankResult
}

// Config controls optional enrichment stages.
type Config struct {
	// RankAtSubmission attaches a rank to every payload. When false the rank
	// stage is skipped and left to admin review.
	RankAtSubmission bool
}

// Orchestrator enriches submissions. Authors are resolved serially so one
// submission never exceeds the index's shared rate limit.
type Orchestrator struct {
	authors    papersources.AuthorIndex
	classifier FieldClassifier
	ranker     Ranker
	cfg        Config
	logger     zerolog.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// New creates an orchestrator. ranker and metrics may be nil.
func New(authors papersources.AuthorIndex, classifier FieldClassifier, ranker Ranker, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		authors:    authors,
		classifier: classifier,
		ranker:     ranker,
		cfg:        cfg,
		logger:     observability.WithComponent(logger, "enrichment"),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Enrich resolves every author of sub, classifies the conference and
// optionally ranks it. Only an empty paper list fails; every other problem
// degrades into a stub entry or a stage status.
func (o *Orchestrator) Enrich(ctx context.Context, sub *domain.Submission) (*domain.EnrichedPayload, error) {
	if len(sub.Papers) == 0 {
		if o.metrics != nil {
			o.metrics.RecordSubmissionFailed()
		}
		return nil, domain.NewValidationError("papers", "at least one paper is required")
	}

	start := o.now()
	logger := observability.WithSubmissionContext(o.logger, observability.SubmissionIDFromContext(ctx), sub.Name)
	logger.Info().Int("papers", len(sub.Papers)).Msg("enriching submission")

	payload := &domain.EnrichedPayload{
		Name:              sub.Name,
		Organizers:        sub.Organizers,
		Location:          sub.Location,
		FeaturedWorkshops: sub.FeaturedWorkshops,
		Papers:            make([]domain.EnrichedPaper, 0, len(sub.Papers)),
	}
	status := &payload.EnrichmentStatus

	for _, paper := range sub.Papers {
		enriched := domain.EnrichedPaper{
			Title:           paper.Title,
			Authors:         paper.Authors,
			EnrichedAuthors: make([]domain.EnrichedAuthor, 0, len(paper.Authors)),
		}
		for _, name := range paper.Authors {
			enriched.EnrichedAuthors = append(enriched.EnrichedAuthors, o.resolveAuthor(ctx, logger, name, status))
		}
		payload.Papers = append(payload.Papers, enriched)
	}

	o.classify(logger, sub, payload)
	o.rank(ctx, payload)

	status.CompletedAt = o.now().UTC()
	elapsed := o.now().Sub(start)
	if o.metrics != nil {
		o.metrics.RecordSubmissionEnriched(elapsed.Seconds())
	}
	logger.Info().
		Int("authors_total", status.AuthorsTotal).
		Int("authors_resolved", status.AuthorsResolved).
		Int("authors_not_found", status.AuthorsNotFound).
		Int("authors_failed", status.AuthorsFailed).
		Str("classification", payload.ClassificationStatus.Status).
		Dur("duration", elapsed).
		Msg("submission enriched")

	return payload, nil
}

func (o *Orchestrator) resolveAuthor(ctx context.Context, logger zerolog.Logger, name string, status *domain.EnrichmentStatus) domain.EnrichedAuthor {
	status.AuthorsTotal++

	resolved, err := o.authors.ResolveAuthor(ctx, name)
	switch {
	case err == nil:
		status.AuthorsResolved++
		o.recordResolution(OutcomeResolved)
		return domain.EnrichedFromResolved(resolved)
	case errors.Is(err, domain.ErrNotFound):
		status.AuthorsNotFound++
		o.recordResolution(OutcomeNotFound)
		return domain.NotFoundAuthor(name)
	default:
		status.AuthorsFailed++
		status.Warnings = append(status.Warnings, fmt.Sprintf("author %q: %v", name, err))
		o.recordResolution(OutcomeError)
		logger.Warn().Err(err).Str("author", name).Msg("author resolution failed")
		return domain.FailedAuthor(name, err)
	}
}

func (o *Orchestrator) classify(logger zerolog.Logger, sub *domain.Submission, payload *domain.EnrichedPayload) {
	cls, err := o.classifier.Classify(sub.Name, sub.Titles())
	switch {
	case err == nil:
		payload.Classification = cls
		payload.ClassificationStatus = domain.StageStatus{Status: domain.StageStatusOK}
	case errors.Is(err, domain.ErrNotFound):
		payload.ClassificationStatus = domain.StageStatus{
			Status: domain.StageStatusNoMatch,
			Note:   "No research field keywords matched",
		}
	default:
		logger.Error().Err(err).Msg("classification failed")
		payload.ClassificationStatus = domain.StageStatus{
			Status: domain.StageStatusError,
			Note:   err.Error(),
		}
	}
}

func (o *Orchestrator) rank(ctx context.Context, payload *domain.EnrichedPayload) {
	if !o.cfg.RankAtSubmission || o.ranker == nil {
		payload.RankStatus = domain.StageStatus{
			Status: domain.StageStatusSkipped,
			Note:   "Ranking deferred to admin review",
		}
		return
	}
	payload.Rank = o.ranker.Rank(ctx, payload.Classification, payload.Papers)
	payload.RankStatus = domain.StageStatus{Status: domain.StageStatusOK}
}

func (o *Orchestrator) recordResolution(outcome string) {
	if o.metrics != nil {
		o.metrics.RecordAuthorResolution(outcome)
	}
}
