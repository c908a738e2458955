// Package ranking produces the composite A/B/C quality rank of a conference
// from an external ranking lookup, a curated acronym table and an
// algorithmic fallback score.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/classifier"
	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
)

// Scores assigned by each tier.
const (
	DefaultScore   = 50
	CoreScore      = 90
	KnownListScore = 85
	BaseScore      = 50

	ThresholdA = 85
	ThresholdB = 65
)

// Factor tags.
const (
	FactorInsufficientData      = "insufficient_data"
	FactorCoreOfficialRanking   = "core_official_ranking"
	FactorKnownConferencePrefix = "known_conference_"
	FactorTopTierField          = "top_tier_field"
	FactorMidTierField          = "mid_tier_field"
	FactorSpecializedField      = "specialized_field"
	FactorHighConfidence        = "high_confidence_classification"
	FactorModerateConfidence    = "moderate_confidence_classification"
	FactorLargeConference       = "large_conference"
	FactorMediumConference      = "medium_conference"
	FactorSmallConference       = "small_conference"
	FactorHighHIndex            = "high_h_index"
	FactorModerateHIndex        = "moderate_h_index"
	FactorLowHIndex             = "low_h_index"
	FactorInterdisciplinary     = "interdisciplinary"
)

var (
	topTierFields = map[string]bool{
		classifier.FieldMachineLearning: true,
		classifier.FieldNLP:             true,
		classifier.FieldComputerVision:  true,
		classifier.FieldSecurity:        true,
	}
	midTierFields = map[string]bool{
		classifier.FieldRobotics:            true,
		classifier.FieldDistributedSystems:  true,
		classifier.FieldSoftwareEngineering: true,
		classifier.FieldTheory:              true,
	}
)

// Aggregator ranks conferences. It is safe for concurrent use.
type Aggregator struct {
	source  papersources.RankingSource
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates an aggregator. source and metrics may be nil; without a
// source the external lookup tier is skipped.
func New(source papersources.RankingSource, logger zerolog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		source:  source,
		logger:  observability.WithComponent(logger, "ranking"),
		metrics: metrics,
	}
}

// Rank returns the rank of a conference. It never fails: a nil
// classification yields the default C rank and ranking source failures fall
// through to the next tier.
func (a *Aggregator) Rank(ctx context.Context, cls *domain.Classification, papers []domain.EnrichedPaper) *domain.RankResult {
	var result *domain.RankResult
	switch {
	case cls == nil:
		result = &domain.RankResult{
			Rank:      domain.RankC,
			Score:     DefaultScore,
			Method:    domain.RankMethodDefault,
			Factors:   []string{FactorInsufficientData},
			Reasoning: "Insufficient data for ranking",
			Source:    domain.RankSourceLocal,
		}
	default:
		if result = a.coreRank(ctx, cls.Primary); result == nil {
			if result = knownListRank(cls.Primary); result == nil {
				result = AlgorithmicRank(cls, papers)
			}
		}
	}

	a.logger.Debug().
		Str("method", string(result.Method)).
		Str("rank", result.Rank).
		Int("score", result.Score).
		Msg("conference ranked")
	if a.metrics != nil {
		a.metrics.RecordRank(string(result.Method), result.Rank)
	}
	return result
}

func (a *Aggregator) coreRank(ctx context.Context, query string) *domain.RankResult {
	if a.source == nil {
		return nil
	}

	ranking, err := a.source.LookupVenue(ctx, query)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.logger.Warn().Err(err).Str("query", query).Msg("ranking source lookup failed")
		}
		return nil
	}
	if ranking.Rank == "" {
		return nil
	}

	return &domain.RankResult{
		Rank:      ranking.Rank,
		Score:     CoreScore,
		Method:    domain.RankMethodCoreAPI,
		Factors:   []string{FactorCoreOfficialRanking},
		Reasoning: fmt.Sprintf("Official CORE ranking: %s", ranking.Rank),
		Source:    domain.RankSourceCore,
		CoreData:  ranking,
	}
}

func knownListRank(primary string) *domain.RankResult {
	acronym := normalizeAcronym(primary)
	rank, ok := knownConferences[acronym]
	if !ok {
		return nil
	}
	return &domain.RankResult{
		Rank:      rank,
		Score:     KnownListScore,
		Method:    domain.RankMethodKnownList,
		Factors:   []string{FactorKnownConferencePrefix + acronym},
		Reasoning: "Conference found in known top-tier list",
		Source:    domain.RankSourceLocal,
	}
}

// normalizeAcronym returns the uppercased first whitespace token of s.
func normalizeAcronym(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// AlgorithmicRank scores a classified conference from its field,
// classification confidence, paper count and author h-indexes.
func AlgorithmicRank(cls *domain.Classification, papers []domain.EnrichedPaper) *domain.RankResult {
	score := BaseScore
	var factors []string
	add := func(points int, factor string) {
		score += points
		factors = append(factors, factor)
	}

	switch {
	case topTierFields[cls.Primary]:
		add(20, FactorTopTierField)
	case midTierFields[cls.Primary]:
		add(10, FactorMidTierField)
	default:
		factors = append(factors, FactorSpecializedField)
	}

	switch {
	case cls.Confidence >= 0.85:
		add(10, FactorHighConfidence)
	case cls.Confidence >= 0.70:
		add(5, FactorModerateConfidence)
	}

	if len(papers) > 0 {
		switch n := len(papers); {
		case n >= 100:
			add(15, FactorLargeConference)
		case n >= 50:
			add(10, FactorMediumConference)
		case n >= 20:
			add(5, FactorSmallConference)
		}
	}

	if avg, ok := averageHIndex(papers); ok {
		switch {
		case avg >= 30:
			add(15, FactorHighHIndex)
		case avg >= 15:
			add(10, FactorModerateHIndex)
		case avg >= 5:
			add(5, FactorLowHIndex)
		}
	}

	if len(cls.Secondary) >= 2 {
		add(5, FactorInterdisciplinary)
	}

	score = clamp(score, 0, 100)
	return &domain.RankResult{
		Rank:      RankForScore(score),
		Score:     score,
		Method:    domain.RankMethodAlgorithmic,
		Factors:   factors,
		Reasoning: fmt.Sprintf("Algorithmic ranking (%d/100) based on field, authors, and conference scale", score),
		Source:    domain.RankSourceLocal,
	}
}

// RankForScore maps a 0-100 score to a rank letter.
func RankForScore(score int) string {
	switch {
	case score >= ThresholdA:
		return domain.RankA
	case score >= ThresholdB:
		return domain.RankB
	default:
		return domain.RankC
	}
}

// averageHIndex averages the known h-indexes of every enriched author.
func averageHIndex(papers []domain.EnrichedPaper) (float64, bool) {
	sum, n := 0, 0
	for _, p := range papers {
		for _, author := range p.EnrichedAuthors {
			if author.HIndex != nil {
				sum += *author.HIndex
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
