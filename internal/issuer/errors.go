package issuer

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnmanagedToken is returned by Refresh when the given token was never
// cached by this service, or has already been evicted or replaced.
var ErrUnmanagedToken = errors.New("token is not managed by this service")

// AuthHTTPError reports a token endpoint response with a non-success status.
type AuthHTTPError struct {
	StatusCode int
	URL        string
}

func (e *AuthHTTPError) Error() string {
	return fmt.Sprintf("token endpoint %s returned status %d", e.URL, e.StatusCode)
}

// Status implements the handler layer's status mapping: the upstream
// endpoint failed, which is a gateway problem from the caller's view.
func (e *AuthHTTPError) Status() (int, string) {
	return http.StatusBadGateway, "token endpoint request failed"
}

// AuthResponseError reports a success response from the token endpoint whose
// body was unusable: unparsable, or missing the access token.
type AuthResponseError struct {
	Reason string
	Err    error
}

func (e *AuthResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid token endpoint response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid token endpoint response: %s", e.Reason)
}

func (e *AuthResponseError) Unwrap() error {
	return e.Err
}

func (e *AuthResponseError) Status() (int, string) {
	return http.StatusBadGateway, "token endpoint returned an unusable response"
}
