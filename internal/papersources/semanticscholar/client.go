package semanticscholar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/cache"
	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
	"github.com/helixir/conference-catalog-service/internal/similarity"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default per-attempt HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultCandidateLimit is how many author candidates are requested per name.
	DefaultCandidateLimit = 20

	// MaxVenuePapers caps the number of papers requested per venue search.
	MaxVenuePapers = 10

	// ConferenceInfoTopPapers is the number of papers kept in ConferenceInfo.TopPapers.
	ConferenceInfoTopPapers = 5

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	authorSearchFields = "name,hIndex,affiliations,authorId,citationCount"
	authorFields       = "name,hIndex,affiliations,authorId"
	paperFields        = "title,year,venue,authors,citationCount,abstract,paperId"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"

	// metricsLabel is the source label used in metrics.
	metricsLabel = "semantic_scholar"
)

// Scoring weights for author candidate selection.
const (
	similarityWeight = 0.7
	hIndexWeight     = 0.3
	hIndexCeiling    = 100.0
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	APIKey string

	// Timeout is the per-attempt HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// CandidateLimit is the number of author candidates requested per name.
	// Defaults to DefaultCandidateLimit if zero.
	CandidateLimit int

	// MaxAttempts, BackoffBase and BackoffMax tune 429/timeout retries.
	// Zero values use the HTTP client defaults (3 attempts, 2s doubling, 30s cap).
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Client implements papersources.AuthorIndex for Semantic Scholar.
type Client struct {
	httpClient  *papersources.HTTPClient
	config      Config
	authors     *cache.Cache[domain.ResolvedAuthor]
	papers      *cache.Cache[[]domain.PaperRecord]
	conferences *cache.Cache[domain.ConferenceInfo]
	logger      zerolog.Logger
}

// Compile-time check that Client implements papersources.AuthorIndex.
var _ papersources.AuthorIndex = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one is created from the configuration settings.
// metrics may be nil.
func NewClient(cfg Config, httpClient *papersources.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.CandidateLimit == 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Source:       sourceName,
			MetricsLabel: metricsLabel,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			MaxAttempts:  cfg.MaxAttempts,
			BackoffBase:  cfg.BackoffBase,
			BackoffMax:   cfg.BackoffMax,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		}, papersources.WithMetrics(metrics))
	}

	return &Client{
		httpClient:  httpClient,
		config:      cfg,
		authors:     cache.New[domain.ResolvedAuthor]("authors", 0, lookupHook(metrics, "authors")),
		papers:      cache.New[[]domain.PaperRecord]("venue_papers", 0, lookupHook(metrics, "venue_papers")),
		conferences: cache.New[domain.ConferenceInfo]("conference_info", 0, lookupHook(metrics, "conference_info")),
		logger:      observability.WithComponent(logger, metricsLabel),
	}
}

func lookupHook(metrics *observability.Metrics, name string) cache.Option {
	return cache.WithLookupHook(func(hit bool) {
		if metrics != nil {
			metrics.RecordCacheLookup(name, hit)
		}
	})
}

// ResolveAuthor returns the best-matching author for name. Results, including
// "no candidates", are cached by the exact input string.
func (c *Client) ResolveAuthor(ctx context.Context, name string) (*domain.ResolvedAuthor, error) {
	author, found, err := c.authors.GetOrLoad(ctx, name, func(ctx context.Context) (domain.ResolvedAuthor, cache.Outcome, error) {
		return c.loadAuthor(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewNotFoundError("author", name)
	}
	return &author, nil
}

func (c *Client) loadAuthor(ctx context.Context, name string) (domain.ResolvedAuthor, cache.Outcome, error) {
	searchURL, err := c.buildURL([]string{"author", "search"}, url.Values{
		"query":  {name},
		"fields": {authorSearchFields},
		"limit":  {strconv.Itoa(c.config.CandidateLimit)},
	})
	if err != nil {
		return domain.ResolvedAuthor{}, cache.Transient, err
	}

	var resp AuthorSearchResponse
	if err := c.getJSON(ctx, "author_search", searchURL, &resp); err != nil {
		return domain.ResolvedAuthor{}, cache.Transient, c.softFail(ctx, err, name)
	}

	if len(resp.Data) == 0 {
		c.logger.Warn().Str("author", name).Msg("no author candidates found")
		return domain.ResolvedAuthor{}, cache.Missing, nil
	}

	best := BestCandidate(name, toCandidates(resp.Data))
	c.logger.Debug().
		Str("author", name).
		Str("matched", best.Name).
		Float64("similarity", best.MatchConfidence).
		Msg("author resolved")
	return best, cache.Found, nil
}

// BestCandidate scores every candidate as
// 0.7*similarity(query, name) + 0.3*min(hIndex/100, 1) and returns the
// highest-scoring one. Ties keep the earlier candidate. MatchConfidence is
// the winner's similarity, not its blended score. candidates must not be empty.
func BestCandidate(query string, candidates []domain.AuthorCandidate) domain.ResolvedAuthor {
	bestIdx := 0
	bestScore := math.Inf(-1)
	bestSimilarity := 0.0

	for i, cand := range candidates {
		sim := similarity.Ratio(query, cand.Name)
		score := similarityWeight*sim + hIndexWeight*math.Min(float64(cand.HIndexOrZero())/hIndexCeiling, 1)
		if score > bestScore {
			bestIdx, bestScore, bestSimilarity = i, score, sim
		}
	}

	return toResolved(candidates[bestIdx], query, bestSimilarity)
}

// toResolved builds a ResolvedAuthor, defaulting an unknown citation count to 0
// and the name to fallbackName. An unknown h-index stays nil.
func toResolved(cand domain.AuthorCandidate, fallbackName string, confidence float64) domain.ResolvedAuthor {
	resolved := domain.ResolvedAuthor{
		Name:            cand.Name,
		HIndex:          cand.HIndex,
		ExternalID:      cand.ExternalID,
		MatchConfidence: confidence,
	}
	if resolved.Name == "" {
		resolved.Name = fallbackName
	}
	if len(cand.Affiliations) > 0 {
		resolved.Affiliation = cand.Affiliations[0]
	}
	if cand.CitationCount != nil {
		resolved.CitationCount = *cand.CitationCount
	}
	return resolved
}

// GetAuthorByID fetches one author record by Semantic Scholar identifier.
// The result is not cached and carries a match confidence of 1.
func (c *Client) GetAuthorByID(ctx context.Context, externalID string) (*domain.ResolvedAuthor, error) {
	authorURL, err := c.buildURL([]string{"author", externalID}, url.Values{
		"fields": {authorFields},
	})
	if err != nil {
		return nil, err
	}

	var result AuthorResult
	if err := c.getJSON(ctx, "author_get", authorURL, &result); err != nil {
		if softErr := c.softFail(ctx, err, externalID); softErr != nil {
			return nil, softErr
		}
		return nil, domain.NewNotFoundError("author", externalID)
	}

	resolved := toResolved(toCandidates([]AuthorResult{result})[0], externalID, 1)
	if resolved.ExternalID == "" {
		resolved.ExternalID = externalID
	}
	return &resolved, nil
}

// SearchPapersByVenue returns up to limit (clamped to 1..10) papers matching
// a conference name. Successful searches are cached by name and limit;
// failures return an empty slice and are not cached.
func (c *Client) SearchPapersByVenue(ctx context.Context, conferenceName string, limit int) []domain.PaperRecord {
	limit = max(1, min(limit, MaxVenuePapers))
	key := fmt.Sprintf("%s:%d", conferenceName, limit)

	papers, found, err := c.papers.GetOrLoad(ctx, key, func(ctx context.Context) ([]domain.PaperRecord, cache.Outcome, error) {
		return c.loadPapers(ctx, conferenceName, limit)
	})
	if err != nil || !found {
		return []domain.PaperRecord{}
	}
	return papers
}

func (c *Client) loadPapers(ctx context.Context, conferenceName string, limit int) ([]domain.PaperRecord, cache.Outcome, error) {
	searchURL, err := c.buildURL([]string{"paper", "search"}, url.Values{
		"query":  {conferenceName},
		"limit":  {strconv.Itoa(limit)},
		"fields": {paperFields},
	})
	if err != nil {
		return nil, cache.Transient, err
	}

	var resp PaperSearchResponse
	if err := c.getJSON(ctx, "paper_search", searchURL, &resp); err != nil {
		return nil, cache.Transient, c.softFail(ctx, err, conferenceName)
	}

	papers := make([]domain.PaperRecord, 0, len(resp.Data))
	for _, p := range resp.Data {
		papers = append(papers, toPaperRecord(p))
	}
	c.logger.Debug().Str("conference", conferenceName).Int("papers", len(papers)).Msg("venue papers found")
	return papers, cache.Found, nil
}

// GetConferenceInfo aggregates the top venue-search papers for a conference.
// An empty search is reported as not found and is not cached.
func (c *Client) GetConferenceInfo(ctx context.Context, conferenceName string) (*domain.ConferenceInfo, error) {
	info, found, err := c.conferences.GetOrLoad(ctx, conferenceName, func(ctx context.Context) (domain.ConferenceInfo, cache.Outcome, error) {
		papers := c.SearchPapersByVenue(ctx, conferenceName, MaxVenuePapers)
		if len(papers) == 0 {
			c.logger.Warn().Str("conference", conferenceName).Msg("no papers found for conference")
			return domain.ConferenceInfo{}, cache.Transient, ctx.Err()
		}
		return AggregateConferenceInfo(conferenceName, papers), cache.Found, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewNotFoundError("conference", conferenceName)
	}
	return &info, nil
}

// AggregateConferenceInfo summarizes a set of venue papers.
func AggregateConferenceInfo(conferenceName string, papers []domain.PaperRecord) domain.ConferenceInfo {
	authors := make(map[string]struct{})
	yearSet := make(map[int]struct{})
	total := 0

	for _, p := range papers {
		total += p.CitationCount
		if p.Year != nil {
			yearSet[*p.Year] = struct{}{}
		}
		for _, a := range p.Authors {
			authors[a.Name] = struct{}{}
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	top := papers
	if len(top) > ConferenceInfoTopPapers {
		top = top[:ConferenceInfoTopPapers]
	}

	avg := 0.0
	if len(papers) > 0 {
		avg = float64(total) / float64(len(papers))
	}

	return domain.ConferenceInfo{
		Name:                 conferenceName,
		PapersFound:          len(papers),
		TopPapers:            top,
		UniqueAuthors:        len(authors),
		TotalCitations:       total,
		YearsActive:          years,
		AvgCitationsPerPaper: avg,
	}
}

// ClearCache drops cached authors, venue papers and conference info.
func (c *Client) ClearCache() {
	c.authors.Clear()
	c.papers.Clear()
	c.conferences.Clear()
	c.logger.Info().Msg("caches cleared")
}

// softFail logs an expected lookup failure and swallows it. Only context
// errors from the caller are passed through.
func (c *Client) softFail(ctx context.Context, err error, query string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger := observability.WithLookupContext(c.logger, metricsLabel, query)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug().Err(err).Msg("lookup found nothing")
		return nil
	}
	if papersources.IsTransient(err) {
		logger.Warn().Err(err).Msg("lookup gave up after retries")
		return nil
	}

	event := logger.Error().Err(err)
	var apiErr *domain.ExternalAPIError
	if errors.As(err, &apiErr) {
		event = event.Int("status_code", apiErr.StatusCode)
	}
	event.Msg("lookup failed")
	return nil
}

// buildURL joins path segments onto the base URL and encodes query parameters.
func (c *Client) buildURL(segments []string, params url.Values) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u := baseURL.JoinPath(segments...)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// getJSON issues a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req, endpoint)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "malformed response body", err)
	}
	return nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// toCandidates converts API author records to domain candidates.
func toCandidates(results []AuthorResult) []domain.AuthorCandidate {
	candidates := make([]domain.AuthorCandidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, domain.AuthorCandidate{
			ExternalID:    r.AuthorID,
			Name:          r.Name,
			HIndex:        r.HIndex,
			Affiliations:  r.Affiliations,
			CitationCount: r.CitationCount,
		})
	}
	return candidates
}

// toPaperRecord normalizes an API paper, defaulting missing fields.
func toPaperRecord(p PaperResult) domain.PaperRecord {
	record := domain.PaperRecord{
		Title:    stringOr(p.Title, domain.UnknownPaperTitle),
		Year:     p.Year,
		Venue:    stringOr(p.Venue, ""),
		Abstract: stringOr(p.Abstract, domain.NoAbstractAvailable),
		PaperID:  p.PaperID,
		Authors:  make([]domain.PaperAuthor, 0, len(p.Authors)),
	}
	if p.CitationCount != nil {
		record.CitationCount = *p.CitationCount
	}
	for _, a := range p.Authors {
		record.Authors = append(record.Authors, domain.PaperAuthor{
			Name:     stringOr(a.Name, domain.UnknownAuthorName),
			AuthorID: stringOr(a.AuthorID, ""),
		})
	}
	return record
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
