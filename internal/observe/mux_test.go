package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimMethod(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{
			name:     "GET method with path",
			pattern:  "GET /cache",
			expected: "/cache",
		},
		{
			name:     "POST method with path",
			pattern:  "POST /token",
			expected: "/token",
		},
		{
			name:     "DELETE method with path",
			pattern:  "DELETE /cache",
			expected: "/cache",
		},
		{
			name:     "pattern without method",
			pattern:  "/token",
			expected: "/token",
		},
		{
			name:     "unknown method prefix retained",
			pattern:  "FETCH /token",
			expected: "FETCH /token",
		},
		{
			name:     "path with wildcard",
			pattern:  "POST /token/{profile}",
			expected: "/token/{profile}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimMethod(tt.pattern))
		})
	}
}

func TestMux_RoutesToWrappedHandler(t *testing.T) {
	inner := http.NewServeMux()
	mux := NewMux(inner)

	called := false
	mux.Handle("POST /token", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
