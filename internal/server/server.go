// Package server hosts the admission middleware in front of the service routes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aryangodara/client_rate_limiter"
	"github.com/aryangodara/client_rate_limiter/internal/config"
)

// StatsReader exposes recorded admission statistics.
type StatsReader interface {
	Totals(ctx context.Context) (map[string]int64, error)
	RecentRejections(ctx context.Context, key string) (uint64, error)
}

// Options holds the collaborators the server routes to.
type Options struct {
	// Admission guards the protected routes. Required.
	Admission *client_rate_limiter.RateLimiterConfig
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Stats serves /stats when set.
	Stats StatsReader
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	s := &Server{
		router: r,
		cfg:    cfg,
		logger: logger,
	}
	s.registerRoutes(opts)

	return s
}

func (s *Server) registerRoutes(opts Options) {
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})

	s.router.Group(func(r chi.Router) {
		r.Use(client_rate_limiter.Middleware(opts.Admission))
		r.Get("/middleware", func(w http.ResponseWriter, _ *http.Request) {
			writeText(w, http.StatusOK, "Processed.")
		})
	})

	if opts.Metrics != nil {
		s.router.Handle("/metrics", opts.Metrics)
	}

	if opts.Stats != nil {
		s.router.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			totals, err := opts.Stats.Totals(r.Context())
			if err != nil {
				s.fail(w, "failed to read totals", err)
				return
			}
			s.writeJSON(w, totals)
		})
		s.router.Get("/stats/{client}", func(w http.ResponseWriter, r *http.Request) {
			client := chi.URLParam(r, "client")
			count, err := opts.Stats.RecentRejections(r.Context(), client)
			if err != nil {
				s.fail(w, "failed to read rejections", err)
				return
			}
			s.writeJSON(w, map[string]interface{}{"client": client, "recent_rejections": count})
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write JSON response", zap.Error(err))
	}
}
