package client_rate_limiter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	_ http.Handler = &httpRateLimiterHandler{}
	_ Extractor    = &httpHeaderExtractor{}
	_ Extractor    = &remoteAddrExtractor{}
)

// TooManyRequestsMessage is the body written for every rejected request.
const TooManyRequestsMessage = "Too many requests. Please try again later."

// ErrClientKeyMissing is returned by an Extractor that cannot identify the client.
// Such requests bypass rate limiting.
var ErrClientKeyMissing = errors.New("client key missing from request")

// Extractor extracts a key from an HTTP request for rate limiting.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type httpHeaderExtractor struct {
	headers []string
}

// Extract extracts values from HTTP headers to build the key.
func (h *httpHeaderExtractor) Extract(r *http.Request) (string, error) {
	values := make([]string, 0, len(h.headers))

	for _, key := range h.headers {
		// every header is part of the identity, a missing one leaves the client unidentified
		if value := strings.TrimSpace(r.Header.Get(key)); value != "" {
			values = append(values, value)
		} else {
			return "", fmt.Errorf("header %v must have a value set: %w", key, ErrClientKeyMissing)
		}
	}

	return strings.Join(values, "-"), nil
}

// NewHttpHeaderExtractor creates an Extractor keyed on the given request headers.
func NewHttpHeaderExtractor(headers ...string) Extractor {
	return &httpHeaderExtractor{headers: headers}
}

type remoteAddrExtractor struct{}

// Extract returns the host part of the request's remote address.
func (remoteAddrExtractor) Extract(r *http.Request) (string, error) {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return "", ErrClientKeyMissing
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// no port, use the address as is
		return addr, nil
	}
	if host == "" {
		return "", ErrClientKeyMissing
	}
	return host, nil
}

// NewRemoteAddrExtractor creates an Extractor that identifies clients by their network address.
func NewRemoteAddrExtractor() Extractor {
	return remoteAddrExtractor{}
}

// Event describes one admission decision made by the middleware.
type Event struct {
	Key       string
	Algorithm Algorithm
	Decision  Decision
	// Bypassed is set when the client could not be identified and no limiter was consulted.
	Bypassed bool
	At       time.Time
}

// DefaultRecordTimeout bounds a single Recorder call made by the middleware.
const DefaultRecordTimeout = 50 * time.Millisecond

// Recorder receives admission events. Recording is best effort: errors are logged
// and never change the response.
//
// Record runs synchronously in the request path, so a slow recorder delays every
// request by up to RateLimiterConfig.RecordTimeout.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// RateLimiterConfig holds configuration for rate limiting.
type RateLimiterConfig struct {
	Extractor Extractor
	Limiter   RateLimiter
	// Algorithm labels recorded events.
	Algorithm Algorithm
	Recorder  Recorder
	// RecordTimeout bounds each Recorder call, DefaultRecordTimeout when zero.
	RecordTimeout time.Duration
	Logger        *zap.Logger
	Now           Clock
}

type httpRateLimiterHandler struct {
	handler http.Handler
	config  RateLimiterConfig
}

// NewHTTPRateLimiterHandler wraps an existing http.Handler and performs rate limiting before forwarding the
// request to the API
func NewHTTPRateLimiterHandler(originalHandler http.Handler, config *RateLimiterConfig) http.Handler {
	cfg := *config
	if cfg.Extractor == nil {
		cfg.Extractor = NewRemoteAddrExtractor()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = DefaultRecordTimeout
	}

	return &httpRateLimiterHandler{
		handler: originalHandler,
		config:  cfg,
	}
}

// Middleware returns NewHTTPRateLimiterHandler in the func(http.Handler) http.Handler shape used by routers.
func Middleware(config *RateLimiterConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewHTTPRateLimiterHandler(next, config)
	}
}

// ServeHTTP performs rate limiting and forwards the request if allowed.
func (h *httpRateLimiterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, err := h.config.Extractor.Extract(r)
	if err != nil {
		h.config.Logger.Debug("client not identified, skipping rate limiting",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		h.record(r.Context(), Event{Algorithm: h.config.Algorithm, Decision: Allow, Bypassed: true})
		h.handler.ServeHTTP(w, r)
		return
	}

	decision := h.config.Limiter.Check(key)
	h.record(r.Context(), Event{Key: key, Algorithm: h.config.Algorithm, Decision: decision})

	// Too many requests
	if decision == Reject {
		h.config.Logger.Debug("request rejected",
			zap.String("client", key),
			zap.String("algorithm", string(h.config.Algorithm)),
			zap.String("path", r.URL.Path))
		h.writeResponse(w, http.StatusTooManyRequests, TooManyRequestsMessage)
		return
	}

	h.handler.ServeHTTP(w, r)
}

func (h *httpRateLimiterHandler) record(ctx context.Context, ev Event) {
	if h.config.Recorder == nil {
		return
	}
	ev.At = h.config.Now()

	ctx, cancel := context.WithTimeout(ctx, h.config.RecordTimeout)
	defer cancel()

	if err := h.config.Recorder.Record(ctx, ev); err != nil {
		h.config.Logger.Warn("failed to record admission decision",
			zap.String("client", ev.Key),
			zap.Stringer("decision", ev.Decision),
			zap.Error(err))
	}
}

func (h *httpRateLimiterHandler) writeResponse(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		h.config.Logger.Warn("failed to write body to HTTP response", zap.Error(err))
	}
}
