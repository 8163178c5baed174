package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aryangodara/client_rate_limiter"
	"github.com/aryangodara/client_rate_limiter/internal/config"
	"github.com/aryangodara/client_rate_limiter/internal/observability"
	"github.com/aryangodara/client_rate_limiter/internal/server"
	"github.com/aryangodara/client_rate_limiter/rate_limiting_strategies"
	"github.com/aryangodara/client_rate_limiter/stats"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the configured admission middleware.

SIGINT or SIGTERM shuts the server down gracefully.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, opts.cfg)
		},
	}
}

// service holds everything the server needs, built from configuration.
type service struct {
	server *server.Server
	redis  *redis.Client
}

func (s *service) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize service", zap.Error(err))
		return err
	}
	defer svc.close()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := svc.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := svc.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func newService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service, error) {
	admission := cfg.Limiter.Admission()
	limiter, err := rate_limiting_strategies.New(admission, time.Now)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing admission control",
		zap.String("algorithm", string(admission.Algorithm)),
		zap.Duration("interval", admission.Interval),
		zap.Int("limit", admission.Limit),
		zap.Strings("key_headers", cfg.Limiter.KeyHeaders))

	svc := &service{}
	opts := server.Options{
		Admission: &client_rate_limiter.RateLimiterConfig{
			Extractor: newExtractor(cfg.Limiter),
			Limiter:   limiter,
			Algorithm: admission.Algorithm,
			Logger:    logger,
			Now:       time.Now,
		},
	}
	var recorders []client_rate_limiter.Recorder

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics := stats.NewPrometheusRecorder(cfg.Metrics.Namespace, trackedClients(limiter))
		metrics.MustRegister(reg)
		recorders = append(recorders, metrics)
		opts.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.Stats.Enabled {
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		if err := stats.WaitForRedis(ctx, svc.redis, cfg.Stats.ConnectRetries); err != nil {
			svc.close()
			return nil, err
		}

		rec := stats.NewRedisRecorder(svc.redis, time.Now,
			stats.WithPrefix(cfg.Stats.Prefix),
			stats.WithRejectionWindow(cfg.Stats.RejectionWindow))
		recorders = append(recorders, rec)
		opts.Stats = rec
		logger.Info("Recording admission statistics in Redis", zap.String("addr", cfg.Stats.RedisAddr))
	}

	if len(recorders) > 0 {
		opts.Admission.Recorder = stats.Multi(recorders...)
	}

	svc.server = server.New(cfg.Server, opts, logger)
	return svc, nil
}

func newExtractor(cfg config.LimiterConfig) client_rate_limiter.Extractor {
	if len(cfg.KeyHeaders) > 0 {
		return client_rate_limiter.NewHttpHeaderExtractor(cfg.KeyHeaders...)
	}
	return client_rate_limiter.NewRemoteAddrExtractor()
}

// trackedClients reports the limiter's client count when the limiter exposes one.
func trackedClients(limiter client_rate_limiter.RateLimiter) func() int {
	if l, ok := limiter.(interface{ Len() int }); ok {
		return l.Len
	}
	return nil
}
