package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every *TransportError with errors.Is.
	ErrTransport = errors.New("transport error")

	// ErrUnexpectedStatus is wrapped when the server answered with a status >= 400.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// TransportError reports a request that failed after the retry policy gave up,
// or that failed with a status that is not retried.
type TransportError struct {
	// Method is GET or POST.
	Method string
	// URL is the request URL.
	URL string
	// StatusCode is the last HTTP status, 0 when no response was received.
	StatusCode int
	// Attempts is the number of requests sent.
	Attempts int
	// Err is the last underlying failure.
	Err error

	retryable bool
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed after %d attempt(s): status %d: %v", e.Method, e.URL, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying failure.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Retryable reports whether the last failure belonged to the retried class,
// meaning the request gave up because attempts ran out.
func (e *TransportError) Retryable() bool {
	return e.retryable
}
