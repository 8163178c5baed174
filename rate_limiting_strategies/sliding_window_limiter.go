package rate_limiting_strategies

import (
	"time"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.RateLimiter = &slidingWindowLimiter{}
)

// slidingLogState keeps admitted request times, oldest first.
type slidingLogState struct {
	requests []time.Time
}

type slidingWindowLimiter struct {
	clients     *client_rate_limiter.ClientStateStore[slidingLogState]
	now         client_rate_limiter.Clock
	windowSize  time.Duration
	maxRequests int
}

// NewSlidingWindowLimiter initializes a new sliding window rate limiter.
func NewSlidingWindowLimiter(now client_rate_limiter.Clock, windowSize time.Duration, maxRequests int) client_rate_limiter.RateLimiter {
	return &slidingWindowLimiter{
		clients:     client_rate_limiter.NewClientStateStore[slidingLogState](),
		now:         now,
		windowSize:  windowSize,
		maxRequests: maxRequests,
	}
}

// Check performs rate limiting using a sliding window strategy.
func (s *slidingWindowLimiter) Check(key string) client_rate_limiter.Decision {
	return s.clients.Update(key, func() slidingLogState {
		return slidingLogState{requests: make([]time.Time, 0, s.maxRequests)}
	}, func(st *slidingLogState) client_rate_limiter.Decision {
		// read under the client's lock so the log is appended in clock order
		now := s.now()

		// timestamps are appended in order, so expired ones are always at the front
		expired := 0
		for expired < len(st.requests) && now.Sub(st.requests[expired]) > s.windowSize {
			expired++
		}
		if expired > 0 {
			st.requests = append(st.requests[:0], st.requests[expired:]...)
		}

		// rejected attempts are not recorded
		if len(st.requests) >= s.maxRequests {
			return client_rate_limiter.Reject
		}

		st.requests = append(st.requests, now)
		return client_rate_limiter.Allow
	})
}

// Len returns the number of clients seen by the limiter.
func (s *slidingWindowLimiter) Len() int {
	return s.clients.Len()
}
