package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrMaxRetriesExceeded is returned if the retry loop exits without a
// response or an error. The loop always returns inside an attempt, so
// callers should never observe it.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

// NetworkError is a transport-level failure: DNS, connection refused,
// or a socket-level timeout. It carries no HTTP status.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CircuitOpenError is returned when the breaker rejects a call before
// any network I/O. Callers may retry after RetryAfter has elapsed.
type CircuitOpenError struct {
	Provider   int
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for provider %d, retry after %s", e.Provider, e.RetryAfter)
}
