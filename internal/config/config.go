package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Auth    AuthConfig
	Cache   CacheConfig
	Observe ObserveConfig
	Server  ServerConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// AuthConfig specifies the token endpoint used to resolve tokens on a cache
// miss. The default URL points at the production identity provider; tests
// override it with a local server.
type AuthConfig struct {
	TokenURL string `env:"AUTH_TOKEN_URL, default=https://auth.halcyonlabs.io/oauth/token"`
	Audience string `env:"AUTH_AUDIENCE, default=cloud-api"`
}

// CacheConfig specifies token cache sizing and cleanup behaviour.
type CacheConfig struct {
	// MaxSize is the upper bound on cached entries. Storing beyond it evicts
	// the soonest-to-expire entries.
	MaxSize int `env:"AUTH_CACHE_MAX_SIZE, default=10"`

	// CleanupThreshold is the entry count that forces cleanup consideration.
	CleanupThreshold int `env:"AUTH_CACHE_CLEANUP_THRESHOLD, default=15"`

	// CleanupIntervalSeconds is the minimum wall-clock gap between
	// time-triggered cleanups.
	CleanupIntervalSeconds int `env:"AUTH_CACHE_CLEANUP_INTERVAL_SECS, default=300"`
}

type ObserveConfig struct {
	SDKLogLevel                string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=authbridge"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Auth.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid auth configuration: %w", err)
	}

	err = cfg.Cache.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid cache configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the token endpoint is an absolute URL.
func (c *AuthConfig) Validate() error {
	u, err := url.Parse(c.TokenURL)
	if err != nil {
		return fmt.Errorf("AUTH_TOKEN_URL is not a valid URL: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("AUTH_TOKEN_URL must be absolute: %s", c.TokenURL)
	}

	return nil
}

// Validate checks that the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.MaxSize < 1 {
		return fmt.Errorf("AUTH_CACHE_MAX_SIZE must be at least 1")
	}

	if c.CleanupThreshold < 1 {
		return fmt.Errorf("AUTH_CACHE_CLEANUP_THRESHOLD must be at least 1")
	}

	if c.CleanupIntervalSeconds < 1 {
		return fmt.Errorf("AUTH_CACHE_CLEANUP_INTERVAL_SECS must be at least 1")
	}

	return nil
}
