package auth

import (
	"errors"
	"time"
)

// ErrInvalidToken is returned when a token is constructed with an empty
// access token.
var ErrInvalidToken = errors.New("access token is required")

// Token is a bearer credential with its expiration instant. Immutable once
// constructed; equality is structural over both fields, so two tokens with
// the same access token but different expirations are distinct values.
type Token struct {
	accessToken string
	expiration  time.Time
}

// NewToken validates and constructs a token.
func NewToken(accessToken string, expiration time.Time) (Token, error) {
	if accessToken == "" {
		return Token{}, ErrInvalidToken
	}

	return Token{
		accessToken: accessToken,
		expiration:  expiration,
	}, nil
}

func (t Token) AccessToken() string {
	return t.accessToken
}

func (t Token) Expiration() time.Time {
	return t.expiration
}

// ExpiredAt reports whether the token is expired at the given instant. The
// boundary is inclusive: a token is expired at its expiration instant.
func (t Token) ExpiredAt(now time.Time) bool {
	return !now.Before(t.expiration)
}

// Expired reports whether the token is expired now.
func (t Token) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// Equal reports structural equality over both fields. Expirations are
// compared with time.Time.Equal, so monotonic clock readings don't affect
// the result.
func (t Token) Equal(other Token) bool {
	return t.accessToken == other.accessToken && t.expiration.Equal(other.expiration)
}
