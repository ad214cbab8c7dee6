package provider

import (
	"context"
	"time"

	"finndex/internal/metrics"

	"golang.org/x/time/rate"
)

// RateLimiter holds calls to one upstream inside its free-tier quota.
// Time spent blocked is reported per upstream.
type RateLimiter struct {
	upstream string
	limiter  *rate.Limiter
}

// NewRateLimiter allows capacity calls up front, then one more every interval.
func NewRateLimiter(upstream string, capacity int, interval time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	return &RateLimiter{
		upstream: upstream,
		limiter:  rate.NewLimiter(rate.Every(interval), capacity),
	}
}

// Wait takes a token, sleeping until the next one is due if none is left.
// It fails early when ctx ends, or would end, before the token is due.
func (r *RateLimiter) Wait(ctx context.Context) error {
	started := time.Now()
	err := r.limiter.Wait(ctx)
	metrics.ProviderThrottleWait.WithLabelValues(r.upstream).Observe(time.Since(started).Seconds())
	return err
}
