// Package papersources provides the HTTP plumbing and interfaces shared by the
// external bibliometric and ranking clients.
package papersources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a process-wide token bucket shared by every request a
// client makes. It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter admits ratePerSecond requests with bursts of up to burst.
// Semantic Scholar uses it.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// NewIntervalLimiter spaces requests at least interval apart with no burst.
// CORE uses it to keep its minimum gap between searches.
func NewIntervalLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request may go out or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow takes a token without waiting and reports whether one was available.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
