package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is any non-2xx response from the backend, normalized from the
// server's error envelope. Credential rejections at login are APIErrors with
// a 401 status.
type APIError struct {
	Title       string
	Message     string
	FieldErrors map[string][]string
	StatusCode  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Title, e.Message, e.StatusCode)
}

// SessionExpiredError is returned when a request still fails with 401 after
// the single silent refresh attempt. Both stored tokens have been cleared by
// the time it is returned.
type SessionExpiredError struct{}

func (e *SessionExpiredError) Error() string {
	return "session expired"
}

// NetworkError wraps a transport-level failure where no response was received.
// Callers may retry at their discretion; the client never does on its own.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthRejected reports whether err is a credential rejection, as returned by
// Login with a bad username or password.
func IsAuthRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
