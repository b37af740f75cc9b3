package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/halcyonlabs/authbridge/internal/auth"
	"github.com/halcyonlabs/authbridge/internal/cache"
	"github.com/halcyonlabs/authbridge/internal/issuer"
	"github.com/rs/zerolog/log"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

// TokenRequest is the inbound body for token resolution.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse carries a resolved token and its expiration. It doubles as
// the inbound body for refresh, so a client can round-trip the exact token
// it was handed.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func handlePostToken(svc *issuer.TokenService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var request TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			log.Info().Msgf("invalid token request body: %v", err)
			requestError(w, http.StatusBadRequest)
			return
		}

		creds, err := auth.NewClientCredentials(request.ClientID, request.ClientSecret)
		if err != nil {
			log.Info().Msgf("invalid credentials: %v", err)
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		token, err := svc.Resolve(r.Context(), creds)
		if err != nil {
			status, message := errorStatus(err)
			log.Info().Msgf("token resolution failed: %v", err)
			writeJSONError(w, status, message)
			return
		}

		writeTokenResponse(w, token)
	})
}

func handlePostRefresh(svc *issuer.TokenService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var request TokenResponse
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			log.Info().Msgf("invalid refresh request body: %v", err)
			requestError(w, http.StatusBadRequest)
			return
		}

		token, err := auth.NewToken(request.AccessToken, request.ExpiresAt)
		if err != nil {
			log.Info().Msgf("invalid token: %v", err)
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		refreshed, err := svc.Refresh(r.Context(), token)
		if errors.Is(err, issuer.ErrUnmanagedToken) {
			log.Info().Msg("refresh requested for unmanaged token")
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			status, message := errorStatus(err)
			log.Info().Msgf("token refresh failed: %v", err)
			writeJSONError(w, status, message)
			return
		}

		writeTokenResponse(w, refreshed)
	})
}

func handleGetCache(tokenCache cache.TokenCache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		response := struct {
			Size int `json:"size"`
		}{
			Size: tokenCache.Size(),
		}

		marshalled, err := json.Marshal(response)
		if err != nil {
			requestError(w, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(marshalled)
	})
}

func handlePostCacheCleanup(tokenCache cache.TokenCache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		tokenCache.Cleanup(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleDeleteCache(tokenCache cache.TokenCache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		tokenCache.Clear(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func writeTokenResponse(w http.ResponseWriter, token auth.Token) {
	marshalled, err := json.Marshal(TokenResponse{
		AccessToken: token.AccessToken(),
		ExpiresAt:   token.Expiration(),
	})
	if err != nil {
		requestError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		// record failure to log: trying to respond to the client at this
		// point will likely fail
		log.Info().Msgf("failed to write response: %v", err)
	}
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// At this point the status code has been written, so we can only log
		log.Info().Msgf("failed to write JSON error response: %v", err)
	}
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		_, _ = io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}
