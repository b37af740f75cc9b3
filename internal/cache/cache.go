package cache

import (
	"context"
	"errors"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
)

// ErrInvalidConfiguration is returned when a cache is constructed without
// configuration.
var ErrInvalidConfiguration = errors.New("cache configuration is required")

// Defaults applied to zero-valued configuration fields.
const (
	DefaultMaxSize          = 10
	DefaultCleanupThreshold = 15
	DefaultCleanupInterval  = 5 * time.Minute
)

// Config supplies cache sizing and cleanup behaviour at construction.
// Immutable thereafter.
type Config struct {
	// MaxSize is the upper bound on entry count. Stores that push the cache
	// beyond it evict the soonest-to-expire entries.
	MaxSize int

	// CleanupThreshold is the entry count that forces cleanup consideration.
	CleanupThreshold int

	// CleanupInterval is the minimum wall-clock gap between time-triggered
	// cleanups.
	CleanupInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.CleanupThreshold <= 0 {
		c.CleanupThreshold = DefaultCleanupThreshold
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	return c
}

// TokenCache is a concurrent credentials→token store with lazy expiry.
// Intended to be shared: all callers that should observe the same cached
// tokens hold the same instance, passed through constructors.
type TokenCache interface {
	// Lookup returns the cached token for the credentials if present and not
	// expired. A miss never returns an error; absence is a normal outcome.
	Lookup(ctx context.Context, creds auth.ClientCredentials) (auth.Token, bool)

	// Store inserts or overwrites the entry. Last writer wins under races.
	// If the insertion overflows MaxSize, the soonest-to-expire entries are
	// evicted before Store returns.
	Store(ctx context.Context, creds auth.ClientCredentials, token auth.Token)

	// Evict removes the first entry whose stored token is structurally equal
	// to the given token, returning the credentials that owned it.
	Evict(ctx context.Context, token auth.Token) (auth.ClientCredentials, bool)

	// Clear removes all entries and resets the cleanup clock.
	Clear(ctx context.Context)

	// Cleanup removes every expired entry. Unlike the opportunistic sweep,
	// it blocks until the sweep lock is acquired.
	Cleanup(ctx context.Context)

	// Size is the current entry count.
	Size() int
}
