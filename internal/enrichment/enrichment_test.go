package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/conference-catalog-service/internal/classifier"
	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/ranking"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockAuthorIndex struct {
	resolveFn func(ctx context.Context, name string) (*domain.ResolvedAuthor, error)
	calls     []string
}

func (m *mockAuthorIndex) ResolveAuthor(ctx context.Context, name string) (*domain.ResolvedAuthor, error) {
	m.calls = append(m.calls, name)
	if m.resolveFn != nil {
		return m.resolveFn(ctx, name)
	}
	return nil, domain.NewNotFoundError("author", name)
}

func (m *mockAuthorIndex) GetAuthorByID(_ context.Context, id string) (*domain.ResolvedAuthor, error) {
	return nil, domain.NewNotFoundError("author", id)
}

func (m *mockAuthorIndex) SearchPapersByVenue(_ context.Context, _ string, _ int) []domain.PaperRecord {
	return nil
}

func (m *mockAuthorIndex) GetConferenceInfo(_ context.Context, name string) (*domain.ConferenceInfo, error) {
	return nil, domain.NewNotFoundError("conference", name)
}

func (m *mockAuthorIndex) ClearCache() {}

type mockClassifier struct {
	classifyFn func(name string, titles []string) (*domain.Classification, error)
}

func (m *mockClassifier) Classify(name string, titles []string) (*domain.Classification, error) {
	return m.classifyFn(name, titles)
}

type mockRanker struct {
	got *domain.Classification
}

func (m *mockRanker) Rank(_ context.Context, cls *domain.Classification, _ []domain.EnrichedPaper) *domain.RankResult {
	m.got = cls
	return &domain.RankResult{Rank: domain.RankB, Score: 70, Method: domain.RankMethodAlgorithmic, Source: domain.RankSourceLocal}
}

func sampleSubmission() *domain.Submission {
	return &domain.Submission{
		Name:              "NeurIPS 2024",
		Organizers:        "NeurIPS Foundation",
		Location:          "Vancouver",
		FeaturedWorkshops: "Workshop on Efficient ML",
		Papers: []domain.SubmittedPaper{
			{Title: "Deep Learning and Neural Networks", Authors: []string{"Geoffrey Hinton", "Unknown Person XYZ123"}},
			{Title: "Machine Learning Models", Authors: []string{"Flaky Author"}},
		},
	}
}

func sampleIndex() *mockAuthorIndex {
	hinton := 180
	return &mockAuthorIndex{
		resolveFn: func(_ context.Context, name string) (*domain.ResolvedAuthor, error) {
			switch name {
			case "Geoffrey Hinton":
				return &domain.ResolvedAuthor{
					Name:            "Geoffrey E. Hinton",
					HIndex:          &hinton,
					ExternalID:      "1695689",
					Affiliation:     "University of Toronto",
					CitationCount:   500000,
					MatchConfidence: 0.83,
				}, nil
			case "Flaky Author":
				return nil, errors.New("connection reset by peer")
			default:
				return nil, domain.NewNotFoundError("author", name)
			}
		},
	}
}

func newTestOrchestrator(index *mockAuthorIndex, cls FieldClassifier, ranker Ranker, cfg Config) *Orchestrator {
	return New(index, cls, ranker, cfg, zerolog.Nop(), nil)
}

// ---------------------------------------------------------------------------
// Enrich
// ---------------------------------------------------------------------------

func TestEnrich_EmptyPapers(t *testing.T) {
	index := &mockAuthorIndex{}
	classifierCalled := false
	cls := &mockClassifier{classifyFn: func(string, []string) (*domain.Classification, error) {
		classifierCalled = true
		return nil, nil
	}}
	o := newTestOrchestrator(index, cls, &mockRanker{}, Config{RankAtSubmission: true})

	sub := sampleSubmission()
	sub.Papers = nil
	payload, err := o.Enrich(context.Background(), sub)

	assert.Nil(t, payload)
	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "papers", validationErr.Field)
	assert.Empty(t, index.calls)
	assert.False(t, classifierCalled)
}

func TestEnrich_AuthorOutcomes(t *testing.T) {
	index := sampleIndex()
	o := newTestOrchestrator(index, classifier.New(nil, zerolog.Nop(), nil), nil, Config{})

	payload, err := o.Enrich(context.Background(), sampleSubmission())
	require.NoError(t, err)

	assert.Equal(t, []string{"Geoffrey Hinton", "Unknown Person XYZ123", "Flaky Author"}, index.calls)
	require.Len(t, payload.Papers, 2)

	first := payload.Papers[0].EnrichedAuthors
	require.Len(t, first, 2)
	assert.True(t, first[0].Resolved())
	assert.Equal(t, "1695689", first[0].ExternalID)
	require.NotNil(t, first[0].HIndex)
	assert.Equal(t, 180, *first[0].HIndex)

	assert.Equal(t, "Unknown Person XYZ123", first[1].Name)
	assert.Nil(t, first[1].HIndex)
	assert.Equal(t, domain.AuthorNoteNotFound, first[1].Note)

	second := payload.Papers[1].EnrichedAuthors
	require.Len(t, second, 1)
	assert.Equal(t, "Flaky Author", second[0].Name)
	assert.Nil(t, second[0].HIndex)
	assert.Equal(t, "connection reset by peer", second[0].Error)

	status := payload.EnrichmentStatus
	assert.Equal(t, 3, status.AuthorsTotal)
	assert.Equal(t, 1, status.AuthorsResolved)
	assert.Equal(t, 1, status.AuthorsNotFound)
	assert.Equal(t, 1, status.AuthorsFailed)
	require.Len(t, status.Warnings, 1)
	assert.Contains(t, status.Warnings[0], "Flaky Author")
	assert.False(t, status.CompletedAt.IsZero())

	assert.Equal(t, payload.Papers[0].Authors, []string{"Geoffrey Hinton", "Unknown Person XYZ123"})
	assert.Equal(t, "Vancouver", payload.Location)
}

func TestEnrich_Classification(t *testing.T) {
	tests := []struct {
		name       string
		classifyFn func(string, []string) (*domain.Classification, error)
		status     string
		wantCls    bool
	}{
		{
			name: "classified",
			classifyFn: func(string, []string) (*domain.Classification, error) {
				return &domain.Classification{Primary: classifier.FieldMachineLearning, Confidence: 0.9}, nil
			},
			status:  domain.StageStatusOK,
			wantCls: true,
		},
		{
			name: "no match",
			classifyFn: func(name string, _ []string) (*domain.Classification, error) {
				return nil, domain.NewNotFoundError("classification", name)
			},
			status: domain.StageStatusNoMatch,
		},
		{
			name: "failure",
			classifyFn: func(string, []string) (*domain.Classification, error) {
				return nil, errors.New("taxonomy unavailable")
			},
			status: domain.StageStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(sampleIndex(), &mockClassifier{classifyFn: tt.classifyFn}, nil, Config{})

			payload, err := o.Enrich(context.Background(), sampleSubmission())
			require.NoError(t, err)

			assert.Equal(t, tt.status, payload.ClassificationStatus.Status)
			assert.Equal(t, tt.wantCls, payload.Classification != nil)
		})
	}
}

func TestEnrich_ClassifierSeesTitles(t *testing.T) {
	var gotName string
	var gotTitles []string
	cls := &mockClassifier{classifyFn: func(name string, titles []string) (*domain.Classification, error) {
		gotName, gotTitles = name, titles
		return nil, domain.NewNotFoundError("classification", name)
	}}
	o := newTestOrchestrator(sampleIndex(), cls, nil, Config{})

	_, err := o.Enrich(context.Background(), sampleSubmission())
	require.NoError(t, err)

	assert.Equal(t, "NeurIPS 2024", gotName)
	assert.Equal(t, []string{"Deep Learning and Neural Networks", "Machine Learning Models"}, gotTitles)
}

func TestEnrich_RankStage(t *testing.T) {
	t.Run("ranked at submission", func(t *testing.T) {
		ranker := &mockRanker{}
		o := newTestOrchestrator(sampleIndex(), classifier.New(nil, zerolog.Nop(), nil), ranker, Config{RankAtSubmission: true})

		payload, err := o.Enrich(context.Background(), sampleSubmission())
		require.NoError(t, err)

		require.NotNil(t, payload.Rank)
		assert.Equal(t, domain.RankB, payload.Rank.Rank)
		assert.Equal(t, domain.StageStatusOK, payload.RankStatus.Status)
		require.NotNil(t, ranker.got)
		assert.Equal(t, classifier.FieldMachineLearning, ranker.got.Primary)
	})

	t.Run("deferred", func(t *testing.T) {
		ranker := &mockRanker{}
		o := newTestOrchestrator(sampleIndex(), classifier.New(nil, zerolog.Nop(), nil), ranker, Config{RankAtSubmission: false})

		payload, err := o.Enrich(context.Background(), sampleSubmission())
		require.NoError(t, err)

		assert.Nil(t, payload.Rank)
		assert.Equal(t, domain.StageStatusSkipped, payload.RankStatus.Status)
		assert.Nil(t, ranker.got)
	})

	t.Run("unclassified gets default rank", func(t *testing.T) {
		cls := &mockClassifier{classifyFn: func(name string, _ []string) (*domain.Classification, error) {
			return nil, domain.NewNotFoundError("classification", name)
		}}
		o := newTestOrchestrator(sampleIndex(), cls, ranking.New(nil, zerolog.Nop(), nil), Config{RankAtSubmission: true})

		payload, err := o.Enrich(context.Background(), sampleSubmission())
		require.NoError(t, err)

		require.NotNil(t, payload.Rank)
		assert.Equal(t, domain.RankC, payload.Rank.Rank)
		assert.Equal(t, 50, payload.Rank.Score)
		assert.Equal(t, domain.RankMethodDefault, payload.Rank.Method)
	})
}

func TestEnrich_CancelledContextYieldsStubs(t *testing.T) {
	index := &mockAuthorIndex{
		resolveFn: func(ctx context.Context, _ string) (*domain.ResolvedAuthor, error) {
			return nil, ctx.Err()
		},
	}
	o := newTestOrchestrator(index, classifier.New(nil, zerolog.Nop(), nil), nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	payload, err := o.Enrich(ctx, sampleSubmission())
	require.NoError(t, err)

	assert.Equal(t, 3, payload.EnrichmentStatus.AuthorsFailed)
	for _, p := range payload.Papers {
		for _, a := range p.EnrichedAuthors {
			assert.Equal(t, context.Canceled.Error(), a.Error)
		}
	}
}

func TestEnrich_PayloadRoundTrip(t *testing.T) {
	o := newTestOrchestrator(sampleIndex(), classifier.New(nil, zerolog.Nop(), nil), ranking.New(nil, zerolog.Nop(), nil), Config{RankAtSubmission: true})
	o.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	payload, err := o.Enrich(context.Background(), sampleSubmission())
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded domain.EnrichedPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, *payload, decoded)
	assert.Contains(t, string(data), `"name":"Unknown Person XYZ123","h_index":null,"note":"Not found in Semantic Scholar"`)
	assert.Contains(t, string(data), `"name":"Flaky Author","h_index":null,"error":"connection reset by peer"`)
}
