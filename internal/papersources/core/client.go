package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/helixir/conference-catalog-service/internal/cache"
	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the CORE API.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultMinInterval spaces requests to roughly two per second.
	DefaultMinInterval = 500 * time.Millisecond

	// DefaultCacheTTL is how long lookups, including misses, are cached.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultBreakerFailures is the consecutive failure count that opens the breaker.
	DefaultBreakerFailures = 5

	// DefaultBreakerCooldown is how long the breaker stays open.
	DefaultBreakerCooldown = 60 * time.Second

	// matchConfidence is attached to every CORE hit.
	matchConfidence = 0.9

	sourceName   = "CORE"
	metricsLabel = "core"
	breakerName  = "core-api"
)

// Config contains configuration options for the CORE client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between requests across all callers.
	MinInterval time.Duration

	// CacheTTL is how long lookups are cached.
	CacheTTL time.Duration

	// BreakerFailures opens the breaker after this many consecutive failures.
	BreakerFailures uint32

	// BreakerCooldown is the open-state duration before a trial request.
	BreakerCooldown time.Duration
}

// Client implements papersources.RankingSource for CORE.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
	cache      *cache.Cache[domain.CoreRanking]
	breaker    *gobreaker.CircuitBreaker[*domain.CoreRanking]
	logger     zerolog.Logger
}

// Compile-time check that Client implements papersources.RankingSource.
var _ papersources.RankingSource = (*Client)(nil)

// NewClient creates a new CORE client. If httpClient is nil, a single-attempt
// client gated by cfg.MinInterval is created. metrics may be nil.
func NewClient(cfg Config, httpClient *papersources.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerCooldown == 0 {
		cfg.BreakerCooldown = DefaultBreakerCooldown
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Source:       sourceName,
			MetricsLabel: metricsLabel,
			Timeout:      cfg.Timeout,
			MaxAttempts:  1,
			APIKey:       cfg.APIKey,
			APIKeyHeader: "Authorization",
			APIKeyPrefix: "Bearer ",
		},
			papersources.WithRateLimiter(papersources.NewIntervalLimiter(cfg.MinInterval)),
			papersources.WithMetrics(metrics),
		)
	}

	logger = observability.WithComponent(logger, metricsLabel)

	breaker := gobreaker.NewCircuitBreaker[*domain.CoreRanking](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			if metrics != nil {
				metrics.RecordCircuitBreakerState(name, stateValue(to))
			}
		},
	})

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		cache: cache.New[domain.CoreRanking]("core_rankings", cfg.CacheTTL, cache.WithLookupHook(func(hit bool) {
			if metrics != nil {
				metrics.RecordCacheLookup("core_rankings", hit)
			}
		})),
		breaker: breaker,
		logger:  logger,
	}
}

// LookupVenue returns the CORE record for a venue name. "No data" answers
// are cached like hits; rate limiting, errors and an open breaker are not.
func (c *Client) LookupVenue(ctx context.Context, name string) (*domain.CoreRanking, error) {
	ranking, found, err := c.cache.GetOrLoad(ctx, name, func(ctx context.Context) (domain.CoreRanking, cache.Outcome, error) {
		return c.load(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewNotFoundError("venue ranking", name)
	}
	return &ranking, nil
}

func (c *Client) load(ctx context.Context, name string) (domain.CoreRanking, cache.Outcome, error) {
	ranking, err := c.breaker.Execute(func() (*domain.CoreRanking, error) {
		return c.search(ctx, name)
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.CoreRanking{}, cache.Transient, ctx.Err()
		}
		logger := observability.WithLookupContext(c.logger, metricsLabel, name)
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			logger.Debug().Err(err).Msg("ranking lookup skipped")
		case errors.Is(err, domain.ErrRateLimited):
			logger.Warn().Msg("ranking source rate limit hit")
		default:
			logger.Debug().Err(err).Msg("ranking lookup failed")
		}
		return domain.CoreRanking{}, cache.Transient, nil
	}

	if ranking == nil {
		c.logger.Debug().Str("venue", name).Msg("venue not found in ranking source")
		return domain.CoreRanking{}, cache.Missing, nil
	}
	c.logger.Info().Str("venue", name).Str("rank", ranking.Rank).Msg("venue ranking found")
	return *ranking, cache.Found, nil
}

// search runs one works query. A nil ranking with a nil error means the
// source answered with no data.
func (c *Client) search(ctx context.Context, name string) (*domain.CoreRanking, error) {
	searchURL, err := c.buildSearchURL(name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req, "search_works")
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "malformed response body", err)
	}

	if len(searchResp.Data) == 0 {
		return nil, nil
	}
	return toRanking(name, searchResp), nil
}

func (c *Client) buildSearchURL(name string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u := baseURL.JoinPath("search", "works")
	u.RawQuery = url.Values{
		"q":      {`venue:"` + name + `"`},
		"limit":  {"1"},
		"offset": {"0"},
	}.Encode()
	return u.String(), nil
}

// ClearCache drops every cached ranking lookup.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

func toRanking(name string, resp SearchResponse) *domain.CoreRanking {
	work := resp.Data[0]
	ranking := &domain.CoreRanking{
		DisplayName: name,
		HIndex:      work.HIndex,
		PaperCount:  resp.TotalHits,
		Confidence:  matchConfidence,
	}
	if work.Title != nil && *work.Title != "" {
		ranking.DisplayName = *work.Title
	}
	if work.Rank != nil {
		ranking.Rank = *work.Rank
	}
	if work.CitationCount != nil {
		ranking.CitationCount = *work.CitationCount
	}
	return ranking
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
