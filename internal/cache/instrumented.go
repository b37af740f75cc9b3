package cache

import (
	"context"
	"sync"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce     sync.Once
	cacheOperations metric.Int64Counter
	cacheDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/halcyonlabs/authbridge/internal/cache")

		var err error
		cacheOperations, err = meter.Int64Counter(
			"cache.operations",
			metric.WithDescription("Total cache operations"),
		)
		if err != nil {
			otel.Handle(err)
		}

		cacheDuration, err = meter.Float64Histogram(
			"cache.operation.duration",
			metric.WithDescription("Cache operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a TokenCache with metrics instrumentation.
type Instrumented struct {
	wrapped   TokenCache
	cacheType string
}

// NewInstrumented creates an instrumented cache wrapper.
func NewInstrumented(cache TokenCache, cacheType string) *Instrumented {
	initMetrics()
	return &Instrumented{
		wrapped:   cache,
		cacheType: cacheType,
	}
}

// Lookup retrieves a token from the cache.
func (i *Instrumented) Lookup(ctx context.Context, creds auth.ClientCredentials) (auth.Token, bool) {
	start := time.Now()

	token, found := i.wrapped.Lookup(ctx, creds)

	duration := time.Since(start)
	i.recordDuration(ctx, "lookup", duration)

	status := "miss"
	if found {
		status = "hit"
	}
	i.recordOperation(ctx, "lookup", status)
	i.setSpanAttributes(ctx, "lookup", status, duration)

	return token, found
}

// Store inserts or overwrites a cache entry.
func (i *Instrumented) Store(ctx context.Context, creds auth.ClientCredentials, token auth.Token) {
	start := time.Now()

	i.wrapped.Store(ctx, creds, token)

	duration := time.Since(start)
	i.recordDuration(ctx, "store", duration)
	i.recordOperation(ctx, "store", "success")
	i.setSpanAttributes(ctx, "store", "success", duration)
}

// Evict removes the entry holding the given token.
func (i *Instrumented) Evict(ctx context.Context, token auth.Token) (auth.ClientCredentials, bool) {
	start := time.Now()

	creds, found := i.wrapped.Evict(ctx, token)

	duration := time.Since(start)
	i.recordDuration(ctx, "evict", duration)

	status := "miss"
	if found {
		status = "hit"
	}
	i.recordOperation(ctx, "evict", status)
	i.setSpanAttributes(ctx, "evict", status, duration)

	return creds, found
}

// Clear removes all cache entries.
func (i *Instrumented) Clear(ctx context.Context) {
	start := time.Now()

	i.wrapped.Clear(ctx)

	duration := time.Since(start)
	i.recordDuration(ctx, "clear", duration)
	i.recordOperation(ctx, "clear", "success")
	i.setSpanAttributes(ctx, "clear", "success", duration)
}

// Cleanup removes expired cache entries.
func (i *Instrumented) Cleanup(ctx context.Context) {
	start := time.Now()

	i.wrapped.Cleanup(ctx)

	duration := time.Since(start)
	i.recordDuration(ctx, "cleanup", duration)
	i.recordOperation(ctx, "cleanup", "success")
	i.setSpanAttributes(ctx, "cleanup", "success", duration)
}

// Size is the current entry count.
func (i *Instrumented) Size() int {
	return i.wrapped.Size()
}

func (i *Instrumented) recordOperation(ctx context.Context, operation, status string) {
	if cacheOperations == nil {
		return
	}
	cacheOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("cache.type", i.cacheType),
			attribute.String("cache.operation", operation),
			attribute.String("cache.status", status),
		),
	)
}

func (i *Instrumented) recordDuration(ctx context.Context, operation string, duration time.Duration) {
	if cacheDuration == nil {
		return
	}
	cacheDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("cache.type", i.cacheType),
			attribute.String("cache.operation", operation),
		),
	)
}

func (i *Instrumented) setSpanAttributes(ctx context.Context, operation, status string, duration time.Duration) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("cache.type", i.cacheType),
		attribute.String("cache."+operation+".status", status),
		attribute.Float64("cache."+operation+".duration", duration.Seconds()),
	)
}
