package rate_limiting_strategies

import (
	"time"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.RateLimiter = &fixedWindowLimiter{}
)

type windowState struct {
	count       int
	windowStart time.Time
}

type fixedWindowLimiter struct {
	clients     *client_rate_limiter.ClientStateStore[windowState]
	now         client_rate_limiter.Clock
	windowSize  time.Duration
	maxRequests int
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
//
// Each client gets a window that starts with its first request. Once a request
// arrives after the window has elapsed the count is reset, so up to twice
// maxRequests may be admitted around a window boundary.
func NewFixedWindowLimiter(now client_rate_limiter.Clock, windowSize time.Duration, maxRequests int) client_rate_limiter.RateLimiter {
	return &fixedWindowLimiter{
		clients:     client_rate_limiter.NewClientStateStore[windowState](),
		now:         now,
		windowSize:  windowSize,
		maxRequests: maxRequests,
	}
}

// Check performs rate limiting using a fixed window strategy.
func (f *fixedWindowLimiter) Check(key string) client_rate_limiter.Decision {
	return f.clients.Update(key, func() windowState {
		return windowState{windowStart: f.now()}
	}, func(s *windowState) client_rate_limiter.Decision {
		now := f.now()
		if now.After(s.windowStart.Add(f.windowSize)) {
			*s = windowState{windowStart: now}
		}

		if s.count >= f.maxRequests {
			return client_rate_limiter.Reject
		}

		s.count++
		return client_rate_limiter.Allow
	})
}

// Len returns the number of clients seen by the limiter.
func (f *fixedWindowLimiter) Len() int {
	return f.clients.Len()
}
