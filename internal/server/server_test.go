package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aryangodara/client_rate_limiter"
	"github.com/aryangodara/client_rate_limiter/internal/config"
	"github.com/aryangodara/client_rate_limiter/rate_limiting_strategies"
)

type fakeStats struct {
	totals map[string]int64
	err    error
}

func (f fakeStats) Totals(context.Context) (map[string]int64, error) {
	return f.totals, f.err
}

func (f fakeStats) RecentRejections(_ context.Context, key string) (uint64, error) {
	return uint64(len(key)), f.err
}

func newTestServer(cfg config.ServerConfig, stats StatsReader) *Server {
	now := time.Date(2024, time.June, 23, 10, 15, 30, 0, time.UTC)
	return New(cfg, Options{
		Admission: &client_rate_limiter.RateLimiterConfig{
			Limiter: rate_limiting_strategies.NewFixedWindowLimiter(func() time.Time { return now }, time.Minute, 2),
		},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("admission_decisions_total 3\n"))
		}),
		Stats: stats,
	}, nil)
}

func get(h http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestServer_ProtectedRoute(t *testing.T) {
	h := newTestServer(config.ServerConfig{}, nil).Handler()

	for i := 0; i < 2; i++ {
		w := get(h, "/middleware", "10.0.0.1:1234", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Processed.", w.Body.String())
	}

	w := get(h, "/middleware", "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests. Please try again later.", w.Body.String())

	// health and metrics are not rate limited
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(h, "/healthz", "10.0.0.1:1234", nil).Code)
		assert.Equal(t, http.StatusOK, get(h, "/metrics", "10.0.0.1:1234", nil).Code)
	}

	assert.Equal(t, http.StatusOK, get(h, "/middleware", "10.0.0.2:1234", nil).Code)
}

func TestServer_TrustProxyHeaders(t *testing.T) {
	tt := []struct {
		desc  string
		trust bool
		want  int
	}{
		{desc: "forwarded address is ignored by default", trust: false, want: http.StatusTooManyRequests},
		{desc: "forwarded address keys the client when trusted", trust: true, want: http.StatusOK},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			h := newTestServer(config.ServerConfig{TrustProxyHeaders: ts.trust}, nil).Handler()

			for i := 0; i < 2; i++ {
				require.Equal(t, http.StatusOK, get(h, "/middleware", "10.0.0.1:1234",
					map[string]string{"X-Forwarded-For": "203.0.113.1"}).Code)
			}
			assert.Equal(t, ts.want, get(h, "/middleware", "10.0.0.1:1234",
				map[string]string{"X-Forwarded-For": "203.0.113.2"}).Code)
		})
	}
}

func TestServer_Stats(t *testing.T) {
	h := newTestServer(config.ServerConfig{}, fakeStats{totals: map[string]int64{"leaky_bucket:rejected": 4}}).Handler()

	w := get(h, "/stats", "10.0.0.1:1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"leaky_bucket:rejected":4}`, w.Body.String())

	w = get(h, "/stats/abc", "10.0.0.1:1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"client":"abc","recent_rejections":3}`, w.Body.String())

	h = newTestServer(config.ServerConfig{}, fakeStats{err: errors.New("redis down")}).Handler()
	assert.Equal(t, http.StatusInternalServerError, get(h, "/stats", "10.0.0.1:1", nil).Code)
}

func TestServer_NoStatsRoutesWithoutReader(t *testing.T) {
	h := newTestServer(config.ServerConfig{}, nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(h, "/stats", "10.0.0.1:1", nil).Code)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := newTestServer(config.ServerConfig{}, nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestServer_WriteJSONLogsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := New(config.ServerConfig{}, Options{
		Admission: &client_rate_limiter.RateLimiterConfig{
			Limiter: rate_limiting_strategies.NewFixedWindowLimiter(time.Now, time.Minute, 1),
		},
	}, zap.New(core))

	s.writeJSON(failingWriter{httptest.NewRecorder()}, map[string]int64{"fixed_window:allowed": 1})

	entries := logs.FilterMessage("failed to write JSON response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}
