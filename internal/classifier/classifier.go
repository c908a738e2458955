// Package classifier places a conference in the research field taxonomy from
// keyword signals in its name and paper titles.
package classifier

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
)

const (
	// MaxTitles is how many paper titles are analyzed.
	MaxTitles = 10

	// MaxSecondary is the maximum number of secondary fields.
	MaxSecondary = 3
)

// FieldScore is a field's keyword occurrence count.
type FieldScore struct {
	Field string
	Score int
}

// Classifier scores text against a taxonomy. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	taxonomy Taxonomy
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// New creates a classifier over taxonomy. A nil taxonomy uses DefaultTaxonomy.
// metrics may be nil.
func New(taxonomy Taxonomy, logger zerolog.Logger, metrics *observability.Metrics) *Classifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy
	}
	return &Classifier{
		taxonomy: taxonomy,
		logger:   observability.WithComponent(logger, "classifier"),
		metrics:  metrics,
	}
}

// Classify returns the primary field, up to three secondary fields, a
// confidence in [0,1] rounded to two decimals, and a reasoning string.
// It returns a *domain.NotFoundError when no keyword matches.
func (c *Classifier) Classify(conferenceName string, titles []string) (*domain.Classification, error) {
	scores := c.Score(AnalysisText(conferenceName, titles))
	if len(scores) == 0 {
		c.logger.Warn().Str("conference", conferenceName).Msg("no field keywords matched")
		c.record("no_match")
		return nil, domain.NewNotFoundError("classification", conferenceName)
	}

	total := 0
	for _, s := range scores {
		total += s.Score
	}

	primary := scores[0]
	secondary := make([]string, 0, MaxSecondary)
	for _, s := range scores[1:] {
		if len(secondary) == MaxSecondary {
			break
		}
		secondary = append(secondary, s.Field)
	}

	confidence := math.Min(float64(primary.Score)/float64(total), 1)
	if len(scores) > 1 {
		ratio := float64(primary.Score) / float64(scores[1].Score+1)
		confidence *= math.Min(1, ratio/2)
	}

	result := &domain.Classification{
		Primary:    primary.Field,
		Secondary:  secondary,
		Confidence: math.Round(confidence*100) / 100,
		Reasoning: fmt.Sprintf("Classified based on keyword analysis of conference name and paper titles. "+
			"Primary field matches: %d occurrences", primary.Score),
	}

	c.logger.Info().
		Str("conference", conferenceName).
		Str("primary", result.Primary).
		Float64("confidence", result.Confidence).
		Msg("conference classified")
	c.record("classified")
	return result, nil
}

// Score counts keyword occurrences per field in text and returns the fields
// that matched, highest score first. Ties keep taxonomy order.
func (c *Classifier) Score(text string) []FieldScore {
	scores := make([]FieldScore, 0, len(c.taxonomy))
	for _, field := range c.taxonomy {
		score := 0
		for _, kw := range field.Keywords {
			score += strings.Count(text, kw)
		}
		if score > 0 {
			scores = append(scores, FieldScore{Field: field.Name, Score: score})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// AnalysisText builds the lowercase text scored by the classifier: the
// conference name followed by at most MaxTitles titles.
func AnalysisText(conferenceName string, titles []string) string {
	if len(titles) > MaxTitles {
		titles = titles[:MaxTitles]
	}

	var b strings.Builder
	b.WriteString(conferenceName)
	for _, t := range titles {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	return strings.ToLower(b.String())
}

func (c *Classifier) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordClassification(outcome)
	}
}
