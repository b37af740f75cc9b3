// Package issuer resolves OAuth2 client-credentials tokens against the
// identity provider's token endpoint, caching results per credential pair.
package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
	"github.com/halcyonlabs/authbridge/internal/cache"
	"github.com/halcyonlabs/authbridge/internal/config"
	"github.com/rs/zerolog/log"
)

// grantType is fixed: this service only performs the client-credentials flow.
const grantType = "client_credentials"

// TokenService resolves tokens for client credentials, consulting the shared
// token cache before going to the network. It never retries: retry policy,
// if any, belongs to the HTTP client's transport.
type TokenService struct {
	tokenURL string
	audience string
	cache    cache.TokenCache
	client   *http.Client
	now      func() time.Time
}

// NewTokenService creates a token service using the given shared cache and
// HTTP client. A nil client falls back to http.DefaultClient.
func NewTokenService(cfg config.AuthConfig, tokenCache cache.TokenCache, client *http.Client) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token service configuration failed: %w", err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &TokenService{
		tokenURL: cfg.TokenURL,
		audience: cfg.Audience,
		cache:    tokenCache,
		client:   client,
		now:      time.Now,
	}, nil
}

type tokenRequest struct {
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Resolve returns a token for the credentials, from cache when possible. On
// a miss it performs one POST to the token endpoint and publishes the result
// back into the cache. Concurrent misses for the same credentials may each
// fetch; the cache deduplicates cached results, not in-flight requests, and
// the last store wins.
func (s *TokenService) Resolve(ctx context.Context, creds auth.ClientCredentials) (auth.Token, error) {
	if token, ok := s.cache.Lookup(ctx, creds); ok {
		log.Ctx(ctx).Debug().
			Stringer("client", creds).
			Time("expiry", token.Expiration()).
			Msg("hit: cached token found")
		return token, nil
	}

	token, err := s.fetch(ctx, creds)
	if err != nil {
		return auth.Token{}, err
	}

	s.cache.Store(ctx, creds, token)

	log.Ctx(ctx).Info().
		Stringer("client", creds).
		Time("expiry", token.Expiration()).
		Msg("miss: token fetched and cached")

	return token, nil
}

// Refresh forces a fresh fetch for the credentials that own the given token:
// forget, then resolve. Eviction guarantees the subsequent Resolve misses
// the cache. A token that isn't found (never cached here, already evicted,
// or replaced by a fresher fetch) fails with ErrUnmanagedToken.
func (s *TokenService) Refresh(ctx context.Context, token auth.Token) (auth.Token, error) {
	creds, ok := s.cache.Evict(ctx, token)
	if !ok {
		return auth.Token{}, ErrUnmanagedToken
	}

	log.Ctx(ctx).Info().
		Stringer("client", creds).
		Msg("refresh: cached token evicted, resolving")

	return s.Resolve(ctx, creds)
}

// fetch performs the token endpoint round trip. A cancelled context aborts
// the request; nothing is cached on any failure path.
func (s *TokenService) fetch(ctx context.Context, creds auth.ClientCredentials) (auth.Token, error) {
	body, err := json.Marshal(tokenRequest{
		Audience:     s.audience,
		GrantType:    grantType,
		ClientID:     creds.ClientID(),
		ClientSecret: creds.ClientSecret(),
	})
	if err != nil {
		return auth.Token{}, fmt.Errorf("could not marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, bytes.NewReader(body))
	if err != nil {
		return auth.Token{}, fmt.Errorf("could not create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return auth.Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	// any 2xx status is a success
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return auth.Token{}, &AuthHTTPError{
			StatusCode: resp.StatusCode,
			URL:        s.tokenURL,
		}
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return auth.Token{}, &AuthResponseError{Reason: "body is not valid JSON", Err: err}
	}

	expiration := s.now().Add(time.Duration(parsed.ExpiresIn) * time.Second)

	token, err := auth.NewToken(parsed.AccessToken, expiration)
	if err != nil {
		return auth.Token{}, &AuthResponseError{Reason: "access_token is missing or empty", Err: err}
	}

	return token, nil
}
