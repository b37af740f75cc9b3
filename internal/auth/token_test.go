package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	token, err := NewToken("access-token", expiry)
	require.NoError(t, err)

	assert.Equal(t, "access-token", token.AccessToken())
	assert.True(t, expiry.Equal(token.Expiration()))
}

func TestNewToken_EmptyAccessToken(t *testing.T) {
	_, err := NewToken("", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_ExpiredAt(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := NewToken("access-token", expiry)
	require.NoError(t, err)

	assert.False(t, token.ExpiredAt(expiry.Add(-time.Second)))
	assert.True(t, token.ExpiredAt(expiry), "boundary is inclusive")
	assert.True(t, token.ExpiredAt(expiry.Add(time.Second)))
}

func TestToken_Equal(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	a, err := NewToken("access-token", expiry)
	require.NoError(t, err)
	b, err := NewToken("access-token", expiry)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))

	// same access token, different expiration: distinct values
	c, err := NewToken("access-token", expiry.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))

	// different access token, same expiration
	d, err := NewToken("other-token", expiry)
	require.NoError(t, err)
	assert.False(t, a.Equal(d))
}

func TestToken_EqualIgnoresMonotonicClock(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	a, err := NewToken("access-token", expiry)
	require.NoError(t, err)

	// round-tripping through serialization strips the monotonic reading
	b, err := NewToken("access-token", expiry.Round(0))
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}
