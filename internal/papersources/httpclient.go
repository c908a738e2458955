package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
)

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source is the human-readable source name used in errors.
	Source string

	// MetricsLabel is the source label used in metrics.
	MetricsLabel string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffBase is the delay before the first retry. It doubles on each retry.
	BackoffBase time.Duration

	// BackoffMax caps the retry delay.
	BackoffMax time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "x-api-key", "Authorization").
	APIKeyHeader string

	// APIKeyPrefix is prepended to the key value (e.g., "Bearer ").
	APIKeyPrefix string
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// HTTPClientOption configures optional HTTPClient collaborators.
type HTTPClientOption func(*HTTPClient)

// WithSleeper replaces the retry wait, mainly so tests can skip real backoff.
func WithSleeper(s Sleeper) HTTPClientOption {
	return func(c *HTTPClient) {
		c.sleep = s
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *observability.Metrics) HTTPClientOption {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// WithRateLimiter shares a limiter across clients.
func WithRateLimiter(rl *RateLimiter) HTTPClientOption {
	return func(c *HTTPClient) {
		c.rateLimiter = rl
	}
}

// HTTPClient wraps http.Client with rate limiting and bounded retries.
// It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
	sleep       Sleeper
	metrics     *observability.Metrics
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// The client waits for the rate limiter before each attempt and retries
// 429 (Too Many Requests) responses and request timeouts with exponential
// backoff. Every other outcome is returned to the caller on the first attempt.
func NewHTTPClient(cfg HTTPClientConfig, opts ...HTTPClientOption) *HTTPClient {
	if cfg.Source == "" {
		cfg.Source = "external source"
	}
	if cfg.MetricsLabel == "" {
		cfg.MetricsLabel = "external"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-ConferenceCatalog/1.0"
	}

	c := &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
		sleep:       waitForRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backoff returns the delay before retry number attempt (0-based):
// BackoffBase * 2^attempt, capped at BackoffMax.
func (c *HTTPClient) Backoff(attempt int) time.Duration {
	delay := c.config.BackoffBase
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.config.BackoffMax {
			return c.config.BackoffMax
		}
	}
	return min(delay, c.config.BackoffMax)
}

// Do executes an HTTP request with rate limiting and retries. endpoint labels
// the request in metrics.
//
// When retries are exhausted on 429 the error is a *domain.RateLimitError; on
// timeouts it wraps domain.ErrTimeout. Non-retryable responses, including
// non-2xx statuses, are returned as-is for the caller to interpret.
func (c *HTTPClient) Do(req *http.Request, endpoint string) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKeyPrefix+c.config.APIKey)
	}

	ctx := req.Context()
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		c.recordRequest(endpoint, time.Since(start))

		last := attempt == c.config.MaxAttempts-1

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTimeout(err) {
				c.recordFailure(endpoint, "transport")
				return nil, fmt.Errorf("request failed: %w", err)
			}
			c.recordFailure(endpoint, "timeout")
			if last {
				return nil, fmt.Errorf("%s request timed out after %d attempts: %w", c.config.Source, c.config.MaxAttempts, domain.ErrTimeout)
			}
			if err := c.sleep(ctx, c.Backoff(attempt)); err != nil {
				return nil, err
			}
			if err := c.resetRequestBody(req); err != nil {
				return nil, fmt.Errorf("cannot retry request: %w", err)
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		delay := c.retryDelay(resp, attempt)
		drain(resp)
		if c.metrics != nil {
			c.metrics.RecordSourceRateLimited(c.config.MetricsLabel)
		}
		if last {
			c.recordFailure(endpoint, "rate_limited")
			return nil, domain.NewRateLimitError(c.config.Source, delay)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		if err := c.resetRequestBody(req); err != nil {
			return nil, fmt.Errorf("cannot retry request: %w", err)
		}
	}

	return nil, errors.New("unexpected error: no response received")
}

// retryDelay returns the exponential backoff for attempt. A Retry-After
// header in seconds can lengthen the wait up to BackoffMax but never shorten it.
func (c *HTTPClient) retryDelay(resp *http.Response, attempt int) time.Duration {
	backoff := c.Backoff(attempt)
	seconds, err := strconv.ParseInt(resp.Header.Get("Retry-After"), 10, 64)
	if err != nil || seconds <= 0 {
		return backoff
	}
	return min(max(time.Duration(seconds)*time.Second, backoff), c.config.BackoffMax)
}

func (c *HTTPClient) recordRequest(endpoint string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordSourceRequest(c.config.MetricsLabel, endpoint, d.Seconds())
	}
}

func (c *HTTPClient) recordFailure(endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordSourceRequestFailed(c.config.MetricsLabel, endpoint, errorType)
	}
}

// isTimeout reports whether err is a per-request timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resetRequestBody resets the request body for retry if possible.
func (c *HTTPClient) resetRequestBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to get request body for retry: %w", err)
	}
	req.Body = body
	return nil
}

// IsTransient reports whether err came from exhausted 429 or timeout retries.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrTimeout)
}
