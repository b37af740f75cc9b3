package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/halcyonlabs/authbridge/internal/cache"
	"github.com/halcyonlabs/authbridge/internal/config"
	"github.com/halcyonlabs/authbridge/internal/issuer"
	"github.com/halcyonlabs/authbridge/internal/observe"
	"github.com/halcyonlabs/authbridge/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/justinas/alice"
)

func configureServerRoutes(ctx context.Context, cfg config.Config) (http.Handler, error) {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// The request body size is fairly limited to prevent accidental or
	// deliberate abuse. Given the current API shape, this is not configurable.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	standardRouteMiddleware := alice.New(requestLimiter)

	// setup the token service and its shared cache. The cache instance is
	// deliberately single: every handler resolves against the same cached
	// tokens.
	memory, err := cache.NewMemory(&cache.Config{
		MaxSize:          cfg.Cache.MaxSize,
		CleanupThreshold: cfg.Cache.CleanupThreshold,
		CleanupInterval:  time.Duration(cfg.Cache.CleanupIntervalSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("token cache configuration failed: %w", err)
	}
	tokenCache := cache.NewInstrumented(memory, "memory")

	svc, err := issuer.NewTokenService(cfg.Auth, tokenCache, http.DefaultClient)
	if err != nil {
		return nil, fmt.Errorf("token service configuration failed: %w", err)
	}

	mux.Handle("POST /token", standardRouteMiddleware.Then(handlePostToken(svc)))
	mux.Handle("POST /token/refresh", standardRouteMiddleware.Then(handlePostRefresh(svc)))

	// cache management for operational tooling
	mux.Handle("GET /cache", standardRouteMiddleware.Then(handleGetCache(tokenCache)))
	mux.Handle("POST /cache/cleanup", standardRouteMiddleware.Then(handlePostCacheCleanup(tokenCache)))
	mux.Handle("DELETE /cache", standardRouteMiddleware.Then(handleDeleteCache(tokenCache)))

	// healthchecks are not included in telemetry
	muxWithoutTelemetry.Handle("GET /healthcheck", standardRouteMiddleware.Then(handleHealthCheck()))

	return mux, nil
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	// configure telemetry, including wrapping default HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	// setup routing and dependencies
	handler, err := configureServerRoutes(ctx, cfg)
	if err != nil {
		return fmt.Errorf("server routing configuration failed: %w", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	shutdown := &server.ShutdownHooks{}
	shutdown.AddContext("telemetry", shutdownTelemetry)

	httpServer.RegisterOnShutdown(func() {
		shutdown.Execute(ctx)
	})

	err = server.Serve(ctx, cfg.Server, httpServer)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to be
	// configured separately. However, it means that any logger that sets its
	// level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
