package cache

import (
	"context"
	"testing"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCache is a mock implementation of TokenCache for testing.
type mockCache struct {
	lookupToken  auth.Token
	lookupFound  bool
	evictCreds   auth.ClientCredentials
	evictFound   bool
	size         int
	lookupCalls  int
	storeCalls   int
	evictCalls   int
	clearCalls   int
	cleanupCalls int
}

func (m *mockCache) Lookup(ctx context.Context, creds auth.ClientCredentials) (auth.Token, bool) {
	m.lookupCalls++
	return m.lookupToken, m.lookupFound
}

func (m *mockCache) Store(ctx context.Context, creds auth.ClientCredentials, token auth.Token) {
	m.storeCalls++
}

func (m *mockCache) Evict(ctx context.Context, token auth.Token) (auth.ClientCredentials, bool) {
	m.evictCalls++
	return m.evictCreds, m.evictFound
}

func (m *mockCache) Clear(ctx context.Context) {
	m.clearCalls++
}

func (m *mockCache) Cleanup(ctx context.Context) {
	m.cleanupCalls++
}

func (m *mockCache) Size() int {
	return m.size
}

func TestInstrumented_Lookup_Hit(t *testing.T) {
	token, err := auth.NewToken("test-token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	mock := &mockCache{lookupToken: token, lookupFound: true}
	instrumented := NewInstrumented(mock, "test")
	ctx := context.Background()

	creds, err := auth.NewClientCredentials("client-1", "secret")
	require.NoError(t, err)

	value, found := instrumented.Lookup(ctx, creds)

	assert.True(t, found)
	assert.True(t, token.Equal(value))
	assert.Equal(t, 1, mock.lookupCalls)
}

func TestInstrumented_Lookup_Miss(t *testing.T) {
	mock := &mockCache{}
	instrumented := NewInstrumented(mock, "test")
	ctx := context.Background()

	creds, err := auth.NewClientCredentials("client-1", "secret")
	require.NoError(t, err)

	value, found := instrumented.Lookup(ctx, creds)

	assert.False(t, found)
	assert.Equal(t, auth.Token{}, value)
	assert.Equal(t, 1, mock.lookupCalls)
}

func TestInstrumented_Store(t *testing.T) {
	mock := &mockCache{}
	instrumented := NewInstrumented(mock, "test")
	ctx := context.Background()

	creds, err := auth.NewClientCredentials("client-1", "secret")
	require.NoError(t, err)
	token, err := auth.NewToken("test-token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	instrumented.Store(ctx, creds, token)

	assert.Equal(t, 1, mock.storeCalls)
}

func TestInstrumented_Evict(t *testing.T) {
	creds, err := auth.NewClientCredentials("client-1", "secret")
	require.NoError(t, err)

	mock := &mockCache{evictCreds: creds, evictFound: true}
	instrumented := NewInstrumented(mock, "test")
	ctx := context.Background()

	token, err := auth.NewToken("test-token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	owner, found := instrumented.Evict(ctx, token)

	assert.True(t, found)
	assert.Equal(t, creds, owner)
	assert.Equal(t, 1, mock.evictCalls)
}

func TestInstrumented_ClearAndCleanup(t *testing.T) {
	mock := &mockCache{size: 7}
	instrumented := NewInstrumented(mock, "test")
	ctx := context.Background()

	instrumented.Clear(ctx)
	instrumented.Cleanup(ctx)

	assert.Equal(t, 1, mock.clearCalls)
	assert.Equal(t, 1, mock.cleanupCalls)
	assert.Equal(t, 7, instrumented.Size())
}
