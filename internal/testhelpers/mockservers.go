package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TokenRequest captures the JSON body the service sends to the token
// endpoint.
type TokenRequest struct {
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// MockIdentityServer provides a configurable mock OAuth2 token endpoint for
// testing.
type MockIdentityServer struct {
	Server       *httptest.Server
	AccessToken  string       // Access token to return from the endpoint
	ExpiresIn    int64        // expires_in value returned with the token
	StatusCode   int          // HTTP status code to return (200 if not set)
	RawBody      string       // Overrides the response body when non-empty
	RequestCount int          // Number of requests received
	LastRequest  TokenRequest // Captured body of the last request
}

// SetupMockIdentityServer creates a mock token endpoint that handles
// client-credentials requests. Returns a MockIdentityServer with
// configurable response values and request tracking.
func SetupMockIdentityServer(t *testing.T) *MockIdentityServer {
	t.Helper()

	mock := &MockIdentityServer{
		AccessToken: "test-access-token",
		ExpiresIn:   3600,
		StatusCode:  http.StatusOK,
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		mock.RequestCount++

		var request TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err == nil {
			mock.LastRequest = request
		}

		if mock.StatusCode != http.StatusOK {
			w.WriteHeader(mock.StatusCode)
			return
		}

		if mock.RawBody != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(mock.RawBody))
			return
		}

		response := struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}{
			AccessToken: mock.AccessToken,
			ExpiresIn:   mock.ExpiresIn,
		}

		WriteJSON(w, response)
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

// TokenURL is the full URL of the mock token endpoint.
func (m *MockIdentityServer) TokenURL() string {
	return m.Server.URL + "/oauth/token"
}

// Close shuts down the mock server.
func (m *MockIdentityServer) Close() {
	m.Server.Close()
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
