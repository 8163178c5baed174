package stats

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryangodara/client_rate_limiter"
)

func TestPrometheusRecorder_Record(t *testing.T) {
	tracked := 3
	recorder := NewPrometheusRecorder("test", func() int { return tracked })

	reg := prometheus.NewRegistry()
	recorder.MustRegister(reg)
	defer recorder.Unregister(reg)

	ctx := context.Background()
	for _, ev := range []client_rate_limiter.Event{
		{Key: "a", Algorithm: client_rate_limiter.LeakyBucket, Decision: client_rate_limiter.Allow},
		{Key: "a", Algorithm: client_rate_limiter.LeakyBucket, Decision: client_rate_limiter.Allow},
		{Key: "a", Algorithm: client_rate_limiter.LeakyBucket, Decision: client_rate_limiter.Reject},
		{Algorithm: client_rate_limiter.LeakyBucket, Decision: client_rate_limiter.Allow, Bypassed: true},
	} {
		require.NoError(t, recorder.Record(ctx, ev))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.Decisions.WithLabelValues("leaky_bucket", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.Decisions.WithLabelValues("leaky_bucket", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.Decisions.WithLabelValues("leaky_bucket", "bypassed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(recorder.TrackedClients))

	tracked = 5
	assert.Equal(t, 5.0, testutil.ToFloat64(recorder.TrackedClients))
}
