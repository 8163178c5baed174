package client_rate_limiter

import (
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of an admission check.
type Decision int64

const (
	Reject Decision = iota
	Allow
)

var decisionStrings = map[Decision]string{
	Allow:  "allow",
	Reject: "reject",
}

func (d Decision) String() string {
	if s, ok := decisionStrings[d]; ok {
		return s
	}
	return fmt.Sprintf("decision(%d)", int64(d))
}

// Clock supplies the current time. Limiters take one so tests can move time by hand.
type Clock func() time.Time

// RateLimiter decides whether a request from the client identified by key may proceed.
// Rejection is a normal outcome and is never reported as an error.
// Implementations must be safe for concurrent use.
type RateLimiter interface {
	Check(key string) Decision
}

// Algorithm names one of the supported admission algorithms.
type Algorithm string

const (
	FixedWindow   Algorithm = "fixed_window"
	SlidingWindow Algorithm = "sliding_window"
	TokenBucket   Algorithm = "token_bucket"
	LeakyBucket   Algorithm = "leaky_bucket"
)

var (
	ErrInvalidAlgorithm = errors.New("rate limiter: unknown algorithm")
	ErrInvalidInterval  = errors.New("rate limiter: interval must be positive")
	ErrInvalidLimit     = errors.New("rate limiter: limit must be positive")
)

// Config selects and parameterizes the single active limiter of a process.
//
// Interval is the window size for the window algorithms, the refill interval for
// the token bucket and the leak rate for the leaky bucket. Limit is maxRequests
// for the window algorithms and the capacity for the buckets.
type Config struct {
	Algorithm Algorithm
	Interval  time.Duration
	Limit     int
}

// Validate checks that the configuration describes a usable limiter.
func (c Config) Validate() error {
	switch c.Algorithm {
	case FixedWindow, SlidingWindow, TokenBucket, LeakyBucket:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAlgorithm, c.Algorithm)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidInterval, c.Interval)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, c.Limit)
	}
	return nil
}
