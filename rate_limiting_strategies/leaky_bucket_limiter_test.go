package rate_limiting_strategies

import (
	"testing"
	"time"

	"github.com/aryangodara/client_rate_limiter"
	"github.com/stretchr/testify/assert"
)

func TestLeakyBucketLimiter_Check(t *testing.T) {
	tt := []struct {
		desc     string
		leakRate time.Duration
		capacity int
		steps    []step
	}{
		{
			desc:     "overflows once full",
			leakRate: time.Second,
			capacity: 10,
			steps: concat(
				repeat(10, 0, client_rate_limiter.Allow),
				[]step{{at: 0, want: client_rate_limiter.Reject}},
			),
		},
		{
			desc:     "drains one unit per leak interval",
			leakRate: time.Second,
			capacity: 10,
			steps: concat(
				repeat(10, 0, client_rate_limiter.Allow),
				[]step{{at: 0, want: client_rate_limiter.Reject}},
				repeat(5, 5*time.Second, client_rate_limiter.Allow),
				[]step{{at: 5 * time.Second, want: client_rate_limiter.Reject}},
			),
		},
		{
			desc:     "water level never goes below empty",
			leakRate: time.Second,
			capacity: 3,
			steps: concat(
				[]step{{at: 0, want: client_rate_limiter.Allow}},
				repeat(3, time.Hour, client_rate_limiter.Allow),
				[]step{{at: time.Hour, want: client_rate_limiter.Reject}},
			),
		},
		{
			desc:     "leak progress is dropped on every check",
			leakRate: time.Second,
			capacity: 1,
			steps: []step{
				{at: 0, want: client_rate_limiter.Allow},
				{at: 600 * time.Millisecond, want: client_rate_limiter.Reject},
				// only 0.6s since the previous check, so nothing leaks yet
				{at: 1200 * time.Millisecond, want: client_rate_limiter.Reject},
				{at: 2200 * time.Millisecond, want: client_rate_limiter.Allow},
			},
		},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			now := start
			limiter := NewLeakyBucketLimiter(func() time.Time {
				return now
			}, ts.leakRate, ts.capacity)

			runSteps(t, limiter, &now, "some-user", ts.steps)
		})
	}
}

func TestLeakyBucketLimiter_ClockMovesBackwards(t *testing.T) {
	now := start
	limiter := NewLeakyBucketLimiter(func() time.Time {
		return now
	}, time.Second, 1)

	assert.Equal(t, client_rate_limiter.Allow, limiter.Check("some-user"))

	now = start.Add(-time.Hour)
	assert.Equal(t, client_rate_limiter.Reject, limiter.Check("some-user"))

	now = start.Add(time.Second)
	assert.Equal(t, client_rate_limiter.Allow, limiter.Check("some-user"))
}
