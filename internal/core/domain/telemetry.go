package domain

import "time"

// BreakerState mirrors the circuit breaker state at the time a call was made.
type BreakerState int

const (
	BreakerOpen     BreakerState = 0
	BreakerClosed   BreakerState = 1
	BreakerHalfOpen BreakerState = 2
)

// String returns a human-readable state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// PayloadCap is the maximum number of bytes of request/response payload
// kept on a telemetry record. Larger payloads are truncated before write.
const PayloadCap = 2000

// APICall is one telemetry record per logical outbound call. The retry
// loop is internal; only the final outcome is recorded.
type APICall struct {
	ID              int64
	Provider        int
	Endpoint        string
	Method          string
	RequestHeaders  string
	RequestPayload  string
	StatusCode      int
	ResponseHeaders string
	ResponsePayload string
	RequestedAt     time.Time
	RespondedAt     time.Time
	DurationMS      int64
	Success         bool
	ErrorCode       string
	ErrorMessage    string
	RetryCount      int
	BreakerState    BreakerState
	CorrelationID   string
	UserAgent       string
}

// CapPayloads truncates oversized payload fields in place.
func (c *APICall) CapPayloads() {
	if len(c.RequestPayload) > PayloadCap {
		c.RequestPayload = c.RequestPayload[:PayloadCap]
	}
	if len(c.ResponsePayload) > PayloadCap {
		c.ResponsePayload = c.ResponsePayload[:PayloadCap]
	}
}
