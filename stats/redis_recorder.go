package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.Recorder = &RedisRecorder{}
)

const (
	maxSortedSetScore = "+inf"

	outcomeAllowed  = "allowed"
	outcomeRejected = "rejected"
	outcomeBypassed = "bypassed"
)

// RedisRecorder keeps admission statistics in Redis.
//
// Totals are kept in a single hash with one "<algorithm>:<outcome>" field per
// combination. Rejections are also logged per client in a sorted set scored by
// time, trimmed to the trailing window. Admission state itself never goes to Redis.
type RedisRecorder struct {
	client *redis.Client
	now    func() time.Time
	prefix string
	window time.Duration
}

// RedisRecorderOption configures a RedisRecorder.
type RedisRecorderOption func(*RedisRecorder)

// WithPrefix sets the key prefix, "admission:stats" by default.
func WithPrefix(prefix string) RedisRecorderOption {
	return func(r *RedisRecorder) { r.prefix = strings.Trim(prefix, ":") }
}

// WithRejectionWindow sets how far back per-client rejections are kept, an hour by default.
func WithRejectionWindow(d time.Duration) RedisRecorderOption {
	return func(r *RedisRecorder) { r.window = d }
}

// NewRedisRecorder creates a recorder writing to client.
func NewRedisRecorder(client *redis.Client, now func() time.Time, opts ...RedisRecorderOption) *RedisRecorder {
	r := &RedisRecorder{
		client: client,
		now:    now,
		prefix: "admission:stats",
		window: time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record adds ev to the totals and, for rejections, to the client's rejection log.
func (r *RedisRecorder) Record(ctx context.Context, ev client_rate_limiter.Event) error {
	at := ev.At
	if at.IsZero() {
		at = r.now()
	}

	p := r.client.Pipeline()
	p.HIncrBy(ctx, r.totalsKey(), string(ev.Algorithm)+":"+outcome(ev), 1)

	if !ev.Bypassed && ev.Decision == client_rate_limiter.Reject && ev.Key != "" {
		key := r.rejectionsKey(ev.Key)
		minimum := at.Add(-r.window)

		// drop rejections that fell out of the window
		p.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(minimum.UnixMilli(), 10))

		// every rejection needs its own member, two may share a millisecond
		p.ZAdd(ctx, key, redis.Z{
			Score:  float64(at.UnixMilli()),
			Member: uuid.New().String(),
		})
		p.Expire(ctx, key, r.window)
	}

	if _, err := p.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record %v decision for key %v: %w", ev.Decision, ev.Key, err)
	}
	return nil
}

// Totals returns the recorded counts keyed by "<algorithm>:<outcome>".
func (r *RedisRecorder) Totals(ctx context.Context) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, r.totalsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}

	totals := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total %v: %w", field, err)
		}
		totals[field] = n
	}
	return totals, nil
}

// RecentRejections counts the rejections of key within the trailing window.
func (r *RedisRecorder) RecentRejections(ctx context.Context, key string) (uint64, error) {
	minimum := r.now().Add(-r.window)

	count, err := r.client.ZCount(ctx, r.rejectionsKey(key), strconv.FormatInt(minimum.UnixMilli(), 10), maxSortedSetScore).Uint64()
	if err != nil {
		return 0, fmt.Errorf("failed to count rejections for key %v: %w", key, err)
	}
	return count, nil
}

func (r *RedisRecorder) totalsKey() string {
	return r.prefix + ":total"
}

func (r *RedisRecorder) rejectionsKey(key string) string {
	return r.prefix + ":rejected:" + key
}

func outcome(ev client_rate_limiter.Event) string {
	switch {
	case ev.Bypassed:
		return outcomeBypassed
	case ev.Decision == client_rate_limiter.Allow:
		return outcomeAllowed
	default:
		return outcomeRejected
	}
}
