package rate_limiting_strategies

import (
	"time"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.RateLimiter = &leakyBucketLimiter{}
)

type leakyBucketState struct {
	waterLevel int
	lastLeak   time.Time
}

type leakyBucketLimiter struct {
	clients  *client_rate_limiter.ClientStateStore[leakyBucketState]
	now      client_rate_limiter.Clock
	leakRate time.Duration
	capacity int
}

// NewLeakyBucketLimiter creates a new counter based leaky bucket rate limiter.
//
// Every admitted request adds one unit of water to the client's bucket and one
// unit leaks out per leakRate. Requests are rejected while the bucket is full;
// nothing is queued.
func NewLeakyBucketLimiter(now client_rate_limiter.Clock, leakRate time.Duration, capacity int) client_rate_limiter.RateLimiter {
	return &leakyBucketLimiter{
		clients:  client_rate_limiter.NewClientStateStore[leakyBucketState](),
		now:      now,
		leakRate: leakRate,
		capacity: capacity,
	}
}

// Check performs rate limiting using a leaky bucket strategy.
func (l *leakyBucketLimiter) Check(key string) client_rate_limiter.Decision {
	return l.clients.Update(key, func() leakyBucketState {
		return leakyBucketState{lastLeak: l.now()}
	}, func(b *leakyBucketState) client_rate_limiter.Decision {
		now := l.now()
		leakAmount := intervalsSince(b.lastLeak, now, l.leakRate)
		b.waterLevel = max(0, b.waterLevel-leakAmount)
		// a backwards clock must not move lastLeak into the future
		if now.After(b.lastLeak) {
			b.lastLeak = now
		}

		if b.waterLevel < l.capacity {
			b.waterLevel++
			return client_rate_limiter.Allow
		}
		return client_rate_limiter.Reject
	})
}

// Len returns the number of clients seen by the limiter.
func (l *leakyBucketLimiter) Len() int {
	return l.clients.Len()
}
