package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
	"github.com/rs/zerolog/log"
)

// expirySample bounds the number of entries inspected when deciding whether
// a sweep is warranted.
const expirySample = 5

// Memory is the in-memory TokenCache implementation. Entry reads and writes
// are lock-free per key; a single auxiliary mutex serializes the multi-key
// sweeps (cleanup, eviction, clear). Opportunistic sweeps try the lock and
// skip on contention: correctness only needs sweeps to run often enough in
// aggregate, not every time one is warranted.
type Memory struct {
	cfg Config

	entries sync.Map // auth.ClientCredentials -> auth.Token
	size    atomic.Int64

	sweepMu     sync.Mutex
	lastCleanup atomic.Int64 // unix nanos, stamped while holding sweepMu

	clock func() time.Time
}

// NewMemory creates an in-memory token cache. Zero-valued configuration
// fields take the package defaults.
func NewMemory(cfg *Config) (*Memory, error) {
	if cfg == nil {
		return nil, ErrInvalidConfiguration
	}

	return &Memory{
		cfg:   cfg.withDefaults(),
		clock: time.Now,
	}, nil
}

// Lookup returns the cached token if present and unexpired. Expired entries
// are reported as misses even while physically present. A miss
// opportunistically attempts a cleanup sweep when one is warranted.
func (m *Memory) Lookup(ctx context.Context, creds auth.ClientCredentials) (auth.Token, bool) {
	now := m.clock()

	if v, ok := m.entries.Load(creds); ok {
		token := v.(auth.Token)
		if !token.ExpiredAt(now) {
			return token, true
		}
	}

	m.maybeCleanup(ctx, now)

	return auth.Token{}, false
}

// Store inserts or overwrites the entry for the credentials. When the insert
// pushes the entry count above MaxSize, the soonest-to-expire entries are
// evicted until the bound holds.
func (m *Memory) Store(ctx context.Context, creds auth.ClientCredentials, token auth.Token) {
	if _, replaced := m.entries.Swap(creds, token); !replaced {
		m.size.Add(1)
	}

	if int(m.size.Load()) > m.cfg.MaxSize {
		m.evictOverflow(ctx)
	}
}

// Evict removes the first entry whose stored token equals the given token,
// returning the owning credentials. An entry whose token has since been
// replaced by a fresher fetch won't match; callers treat that as "no longer
// managed".
func (m *Memory) Evict(ctx context.Context, token auth.Token) (auth.ClientCredentials, bool) {
	var owner auth.ClientCredentials
	found := false

	m.entries.Range(func(k, v any) bool {
		if v.(auth.Token).Equal(token) {
			owner = k.(auth.ClientCredentials)
			found = true
			return false
		}
		return true
	})

	if !found {
		return auth.ClientCredentials{}, false
	}

	m.remove(owner)

	return owner, true
}

// Clear removes all entries and resets the cleanup clock to its oldest
// possible value, forcing the next opportunistic check to re-evaluate from
// scratch.
func (m *Memory) Clear(ctx context.Context) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	m.entries.Range(func(k, _ any) bool {
		m.remove(k.(auth.ClientCredentials))
		return true
	})

	m.lastCleanup.Store(0)
}

// Cleanup removes every expired entry. An explicit call is a request for a
// guaranteed outcome, so it blocks until the sweep lock is acquired. The
// cleanup clock is stamped unconditionally.
func (m *Memory) Cleanup(ctx context.Context) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	m.sweep(ctx, m.clock())
}

// Size is the current entry count, including any expired entries awaiting
// cleanup.
func (m *Memory) Size() int {
	return int(m.size.Load())
}

// maybeCleanup runs a sweep if one is warranted and the sweep lock is free.
// Contention is not an error: the caller's lookup result is unaffected.
func (m *Memory) maybeCleanup(ctx context.Context, now time.Time) {
	if !m.cleanupWarranted(now) {
		return
	}

	if !m.sweepMu.TryLock() {
		return
	}
	defer m.sweepMu.Unlock()

	m.sweep(ctx, now)
}

// cleanupWarranted is the three-way trigger: entry count over the threshold,
// cleanup interval elapsed, or an expired token in a bounded sample. Cheap to
// skip for a small, fresh cache; self-heals under load without a background
// timer.
func (m *Memory) cleanupWarranted(now time.Time) bool {
	if int(m.size.Load()) > m.cfg.CleanupThreshold {
		return true
	}

	if now.Sub(time.Unix(0, m.lastCleanup.Load())) > m.cfg.CleanupInterval {
		return true
	}

	expired := false
	sampled := 0
	m.entries.Range(func(_, v any) bool {
		sampled++
		if v.(auth.Token).ExpiredAt(now) {
			expired = true
			return false
		}
		return sampled < expirySample
	})

	return expired
}

// sweep removes expired entries and stamps the cleanup clock. Callers must
// hold sweepMu.
func (m *Memory) sweep(ctx context.Context, now time.Time) {
	removed := 0
	m.entries.Range(func(k, v any) bool {
		if v.(auth.Token).ExpiredAt(now) {
			m.remove(k.(auth.ClientCredentials))
			removed++
		}
		return true
	})

	m.lastCleanup.Store(now.UnixNano())

	if removed > 0 {
		log.Ctx(ctx).Debug().
			Int("removed", removed).
			Int("size", m.Size()).
			Msg("cache: expired entries removed")
	}
}

// evictOverflow removes the soonest-to-expire entries until the entry count
// is back within MaxSize. Eviction must succeed for the size bound to hold,
// so it blocks on the sweep lock; sweeps are short.
func (m *Memory) evictOverflow(ctx context.Context) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	excess := int(m.size.Load()) - m.cfg.MaxSize
	if excess <= 0 {
		return
	}

	type entry struct {
		creds auth.ClientCredentials
		token auth.Token
	}

	all := make([]entry, 0, m.size.Load())
	m.entries.Range(func(k, v any) bool {
		all = append(all, entry{k.(auth.ClientCredentials), v.(auth.Token)})
		return true
	})

	slices.SortFunc(all, func(a, b entry) int {
		return a.token.Expiration().Compare(b.token.Expiration())
	})

	evicted := 0
	for i := 0; i < len(all) && int(m.size.Load()) > m.cfg.MaxSize; i++ {
		m.remove(all[i].creds)
		evicted++
	}

	log.Ctx(ctx).Debug().
		Int("evicted", evicted).
		Int("size", m.Size()).
		Msg("cache: overflow eviction")
}

// remove deletes an entry, keeping the size counter in step.
func (m *Memory) remove(creds auth.ClientCredentials) {
	if _, present := m.entries.LoadAndDelete(creds); present {
		m.size.Add(-1)
	}
}
