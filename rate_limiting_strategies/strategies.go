// Package rate_limiting_strategies holds the in-memory admission algorithms.
//
// Every limiter keeps its per-client state in its own ClientStateStore and
// serializes checks for one client behind that client's lock. Different
// clients never contend with each other.
package rate_limiting_strategies

import (
	"fmt"

	"github.com/aryangodara/client_rate_limiter"
)

// New builds the limiter selected by cfg.
func New(cfg client_rate_limiter.Config, now client_rate_limiter.Clock) (client_rate_limiter.RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limiter config: %w", err)
	}

	switch cfg.Algorithm {
	case client_rate_limiter.FixedWindow:
		return NewFixedWindowLimiter(now, cfg.Interval, cfg.Limit), nil
	case client_rate_limiter.SlidingWindow:
		return NewSlidingWindowLimiter(now, cfg.Interval, cfg.Limit), nil
	case client_rate_limiter.TokenBucket:
		return NewTokenBucketLimiter(now, cfg.Interval, cfg.Limit), nil
	default:
		return NewLeakyBucketLimiter(now, cfg.Interval, cfg.Limit), nil
	}
}
