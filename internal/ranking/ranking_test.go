package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/conference-catalog-service/internal/classifier"
	"github.com/helixir/conference-catalog-service/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRankingSource struct {
	lookupFn func(ctx context.Context, name string) (*domain.CoreRanking, error)
	calls    []string
}

func (m *mockRankingSource) LookupVenue(ctx context.Context, name string) (*domain.CoreRanking, error) {
	m.calls = append(m.calls, name)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, name)
	}
	return nil, domain.NewNotFoundError("venue ranking", name)
}

func (m *mockRankingSource) ClearCache() {}

func intPtr(v int) *int { return &v }

func papersWithHIndexes(n int, hIndexes ...int) []domain.EnrichedPaper {
	papers := make([]domain.EnrichedPaper, n)
	for i := range papers {
		papers[i].Title = "Paper"
	}
	if n == 0 {
		return papers
	}
	for _, h := range hIndexes {
		papers[0].EnrichedAuthors = append(papers[0].EnrichedAuthors, domain.EnrichedAuthor{Name: "A", HIndex: intPtr(h)})
	}
	return papers
}

// ---------------------------------------------------------------------------
// Rank
// ---------------------------------------------------------------------------

func TestRank_NilClassification(t *testing.T) {
	source := &mockRankingSource{}
	a := New(source, zerolog.Nop(), nil)

	result := a.Rank(context.Background(), nil, papersWithHIndexes(200, 50))

	assert.Equal(t, domain.RankC, result.Rank)
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, domain.RankMethodDefault, result.Method)
	assert.Equal(t, []string{FactorInsufficientData}, result.Factors)
	assert.Equal(t, domain.RankSourceLocal, result.Source)
	assert.Empty(t, source.calls)
}

func TestRank_CoreHit(t *testing.T) {
	ranking := &domain.CoreRanking{DisplayName: "Machine Learning", Rank: "A*", Confidence: 0.9}
	source := &mockRankingSource{
		lookupFn: func(_ context.Context, _ string) (*domain.CoreRanking, error) {
			return ranking, nil
		},
	}
	a := New(source, zerolog.Nop(), nil)

	result := a.Rank(context.Background(), &domain.Classification{Primary: classifier.FieldMachineLearning}, nil)

	assert.Equal(t, []string{classifier.FieldMachineLearning}, source.calls)
	assert.Equal(t, "A*", result.Rank)
	assert.Equal(t, 90, result.Score)
	assert.Equal(t, domain.RankMethodCoreAPI, result.Method)
	assert.Equal(t, domain.RankSourceCore, result.Source)
	assert.Equal(t, "Official CORE ranking: A*", result.Reasoning)
	assert.Same(t, ranking, result.CoreData)
}

func TestRank_CoreWithoutRankFallsThrough(t *testing.T) {
	source := &mockRankingSource{
		lookupFn: func(_ context.Context, name string) (*domain.CoreRanking, error) {
			return &domain.CoreRanking{DisplayName: name}, nil
		},
	}
	a := New(source, zerolog.Nop(), nil)

	result := a.Rank(context.Background(), &domain.Classification{Primary: "ICML"}, nil)

	assert.Equal(t, domain.RankMethodKnownList, result.Method)
}

func TestRank_CoreFailureIsSwallowed(t *testing.T) {
	source := &mockRankingSource{
		lookupFn: func(_ context.Context, _ string) (*domain.CoreRanking, error) {
			return nil, errors.New("connection reset")
		},
	}
	a := New(source, zerolog.Nop(), nil)

	result := a.Rank(context.Background(), &domain.Classification{Primary: classifier.FieldTheory}, nil)

	require.NotNil(t, result)
	assert.Equal(t, domain.RankMethodAlgorithmic, result.Method)
}

func TestRank_KnownList(t *testing.T) {
	a := New(nil, zerolog.Nop(), nil)

	tests := []struct {
		primary string
		rank    string
		factor  string
	}{
		{"NeurIPS", domain.RankA, "known_conference_NEURIPS"},
		{"icml workshop", domain.RankA, "known_conference_ICML"},
		{"KDD 2024", domain.RankB, "known_conference_KDD"},
		{"FSE", domain.RankB, "known_conference_FSE"},
		{"STOC", domain.RankA, "known_conference_STOC"},
	}

	for _, tt := range tests {
		t.Run(tt.primary, func(t *testing.T) {
			result := a.Rank(context.Background(), &domain.Classification{Primary: tt.primary}, nil)

			assert.Equal(t, tt.rank, result.Rank)
			assert.Equal(t, 85, result.Score)
			assert.Equal(t, domain.RankMethodKnownList, result.Method)
			assert.Equal(t, []string{tt.factor}, result.Factors)
			assert.Equal(t, "Conference found in known top-tier list", result.Reasoning)
		})
	}
}

func TestRank_TaxonomyFieldsUseAlgorithm(t *testing.T) {
	a := New(&mockRankingSource{}, zerolog.Nop(), nil)

	result := a.Rank(context.Background(), &domain.Classification{Primary: classifier.FieldMachineLearning, Confidence: 0.5}, nil)

	assert.Equal(t, domain.RankMethodAlgorithmic, result.Method)
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, domain.RankB, result.Rank)
}

// ---------------------------------------------------------------------------
// AlgorithmicRank
// ---------------------------------------------------------------------------

func TestAlgorithmicRank_Factors(t *testing.T) {
	tests := []struct {
		name    string
		cls     domain.Classification
		papers  []domain.EnrichedPaper
		score   int
		factors []string
	}{
		{
			name:    "specialized field only",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			score:   50,
			factors: []string{FactorSpecializedField},
		},
		{
			name:    "mid tier field with moderate confidence",
			cls:     domain.Classification{Primary: classifier.FieldRobotics, Confidence: 0.70},
			score:   65,
			factors: []string{FactorMidTierField, FactorModerateConfidence},
		},
		{
			name:    "top tier field with high confidence",
			cls:     domain.Classification{Primary: classifier.FieldSecurity, Confidence: 0.85},
			score:   80,
			factors: []string{FactorTopTierField, FactorHighConfidence},
		},
		{
			name:    "small conference",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			papers:  papersWithHIndexes(20),
			score:   55,
			factors: []string{FactorSpecializedField, FactorSmallConference},
		},
		{
			name:    "medium conference",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			papers:  papersWithHIndexes(50),
			score:   60,
			factors: []string{FactorSpecializedField, FactorMediumConference},
		},
		{
			name:    "large conference with high h-index authors",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			papers:  papersWithHIndexes(100, 40, 20),
			score:   80,
			factors: []string{FactorSpecializedField, FactorLargeConference, FactorHighHIndex},
		},
		{
			name:    "moderate h-index",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			papers:  papersWithHIndexes(1, 15),
			score:   60,
			factors: []string{FactorSpecializedField, FactorModerateHIndex},
		},
		{
			name:    "low h-index",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics},
			papers:  papersWithHIndexes(1, 4, 6),
			score:   55,
			factors: []string{FactorSpecializedField, FactorLowHIndex},
		},
		{
			name:    "interdisciplinary",
			cls:     domain.Classification{Primary: classifier.FieldBioinformatics, Secondary: []string{"a", "b"}},
			score:   55,
			factors: []string{FactorSpecializedField, FactorInterdisciplinary},
		},
		{
			name:    "clamped to 100",
			cls:     domain.Classification{Primary: classifier.FieldMachineLearning, Confidence: 0.95, Secondary: []string{"a", "b", "c"}},
			papers:  papersWithHIndexes(100, 50),
			score:   100,
			factors: []string{FactorTopTierField, FactorHighConfidence, FactorLargeConference, FactorHighHIndex, FactorInterdisciplinary},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := tt.cls
			result := AlgorithmicRank(&cls, tt.papers)

			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.factors, result.Factors)
			assert.Equal(t, domain.RankMethodAlgorithmic, result.Method)
			assert.Equal(t, domain.RankSourceLocal, result.Source)
			assert.Equal(t, RankForScore(tt.score), result.Rank)
		})
	}
}

func TestAlgorithmicRank_IgnoresUnknownHIndexes(t *testing.T) {
	papers := []domain.EnrichedPaper{{
		Title: "Paper",
		EnrichedAuthors: []domain.EnrichedAuthor{
			{Name: "Known", HIndex: intPtr(30)},
			domain.NotFoundAuthor("Missing"),
			domain.FailedAuthor("Broken", errors.New("boom")),
		},
	}}

	result := AlgorithmicRank(&domain.Classification{Primary: classifier.FieldBioinformatics}, papers)

	assert.Contains(t, result.Factors, FactorHighHIndex)
	assert.Equal(t, 65, result.Score)
}

func TestAlgorithmicRank_ResolvedAuthorWithoutHIndexIsNotZero(t *testing.T) {
	papers := []domain.EnrichedPaper{{
		Title: "Paper",
		EnrichedAuthors: []domain.EnrichedAuthor{
			domain.EnrichedFromResolved(&domain.ResolvedAuthor{Name: "Known", HIndex: intPtr(30), ExternalID: "1"}),
			domain.EnrichedFromResolved(&domain.ResolvedAuthor{Name: "No h-index", ExternalID: "2"}),
		},
	}}

	result := AlgorithmicRank(&domain.Classification{Primary: classifier.FieldBioinformatics}, papers)

	assert.Contains(t, result.Factors, FactorHighHIndex)
	assert.NotContains(t, result.Factors, FactorModerateHIndex)
	assert.Equal(t, 65, result.Score)
}

func TestAlgorithmicRank_Reasoning(t *testing.T) {
	result := AlgorithmicRank(&domain.Classification{Primary: classifier.FieldTheory}, nil)

	assert.Equal(t, "Algorithmic ranking (60/100) based on field, authors, and conference scale", result.Reasoning)
}

func TestRankForScore(t *testing.T) {
	tests := []struct {
		score int
		rank  string
	}{
		{100, domain.RankA},
		{85, domain.RankA},
		{84, domain.RankB},
		{65, domain.RankB},
		{64, domain.RankC},
		{0, domain.RankC},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.rank, RankForScore(tt.score), "score %d", tt.score)
	}
}

func TestNormalizeAcronym(t *testing.T) {
	assert.Equal(t, "NEURIPS", normalizeAcronym("  NeurIPS 2024"))
	assert.Equal(t, "", normalizeAcronym("   "))
}
