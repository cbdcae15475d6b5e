package api

import (
	"fmt"
	"net/http"

	"github.com/hazfactura/console/internal/errors"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized for 401 and ErrUpstream otherwise
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return errors.ErrUnauthorized
	}
	return errors.ErrUpstream
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Message returns the API's message for err, or fallback when err carries none
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" && httpErr.Message != http.StatusText(httpErr.StatusCode) {
		return httpErr.Message
	}
	return fallback
}
