package rate_limiting_strategies

import (
	"time"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.RateLimiter = &tokenBucketLimiter{}
)

type tokenBucketState struct {
	tokens     int
	lastRefill time.Time
}

type tokenBucketLimiter struct {
	clients        *client_rate_limiter.ClientStateStore[tokenBucketState]
	now            client_rate_limiter.Clock
	refillInterval time.Duration
	capacity       int
}

// NewTokenBucketLimiter creates a new Token Bucket rate limiter.
//
// A client's bucket starts full. One token is added per elapsed refillInterval,
// counted in whole intervals when the client next shows up; a partial interval
// is dropped whenever a refill happens.
func NewTokenBucketLimiter(now client_rate_limiter.Clock, refillInterval time.Duration, capacity int) client_rate_limiter.RateLimiter {
	return &tokenBucketLimiter{
		clients:        client_rate_limiter.NewClientStateStore[tokenBucketState](),
		now:            now,
		refillInterval: refillInterval,
		capacity:       capacity,
	}
}

func (t *tokenBucketLimiter) Check(key string) client_rate_limiter.Decision {
	return t.clients.Update(key, func() tokenBucketState {
		return tokenBucketState{tokens: t.capacity, lastRefill: t.now()}
	}, func(b *tokenBucketState) client_rate_limiter.Decision {
		now := t.now()
		tokensToAdd := intervalsSince(b.lastRefill, now, t.refillInterval)
		if tokensToAdd > 0 {
			b.tokens = min(b.tokens+tokensToAdd, t.capacity)
			b.lastRefill = now
		}

		if b.tokens > 0 {
			b.tokens--
			return client_rate_limiter.Allow
		}
		return client_rate_limiter.Reject
	})
}

// Len returns the number of clients seen by the limiter.
func (t *tokenBucketLimiter) Len() int {
	return t.clients.Len()
}

// intervalsSince returns how many whole intervals fit between since and now.
// A clock that went backwards counts as no time elapsed.
func intervalsSince(since, now time.Time, interval time.Duration) int {
	elapsed := now.Sub(since)
	if elapsed <= 0 {
		return 0
	}
	n := elapsed / interval
	if n > maxIntervals {
		return maxIntervals
	}
	return int(n)
}

// maxIntervals caps intervalsSince so that adding it to a count cannot overflow.
const maxIntervals = 1 << 30
