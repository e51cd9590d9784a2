package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents an API error response.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// NetworkError wraps a transport-level failure where no response arrived.
// It never triggers a token refresh and is surfaced verbatim.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuthFailed reports whether err is an authorization failure that survived
// the gateway's single refresh-and-retry.
func IsAuthFailed(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}
