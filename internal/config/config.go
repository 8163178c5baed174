// Package config loads the admission service configuration.
//
// Values are layered as defaults, then an optional YAML file, then environment
// variables prefixed with ADMISSION_ (for example ADMISSION_LIMITER_ALGORITHM).
package config

import (
	"time"

	"github.com/aryangodara/client_rate_limiter"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Limiter LimiterConfig `mapstructure:"limiter"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Stats   StatsConfig   `mapstructure:"stats"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TrustProxyHeaders rewrites the remote address from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that sets these headers, otherwise clients pick their own key.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// LimiterConfig selects the single active limiter
type LimiterConfig struct {
	// Algorithm is one of fixed_window, sliding_window, token_bucket, leaky_bucket
	Algorithm string `mapstructure:"algorithm"`

	// Interval is the window size, refill interval or leak rate depending on Algorithm
	Interval time.Duration `mapstructure:"interval"`

	// Limit is maxRequests for the window algorithms and the capacity for the buckets
	Limit int `mapstructure:"limit"`

	// KeyHeaders identifies clients by these request headers instead of the remote address
	KeyHeaders []string `mapstructure:"key_headers"`
}

// Admission converts the limiter section into the core limiter configuration.
func (l LimiterConfig) Admission() client_rate_limiter.Config {
	return client_rate_limiter.Config{
		Algorithm: client_rate_limiter.Algorithm(l.Algorithm),
		Interval:  l.Interval,
		Limit:     l.Limit,
	}
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`

	// File, when set, sends logs to a size-rotated file instead of stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// StatsConfig contains the Redis decision statistics configuration
type StatsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	Prefix          string        `mapstructure:"prefix"`
	RejectionWindow time.Duration `mapstructure:"rejection_window"`
	ConnectRetries  uint64        `mapstructure:"connect_retries"`
}
