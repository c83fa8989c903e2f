package client

import (
	"fmt"
	"net/http"

	"github.com/nxtrade/tbutils/internal/core/domain"
)

// ErrorCode classifies API-level failures.
type ErrorCode string

const (
	CodeInvalidSecurity    ErrorCode = "INVALID_SECURITY"
	CodeDuplicateRecord    ErrorCode = "DUPLICATE_RECORD"
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeCircuitBreakerOpen ErrorCode = "CIRCUIT_BREAKER_OPEN"
	CodeRemoteError        ErrorCode = "REMOTE_ERROR"
)

// APIError is a delivered non-2xx response translated once at the client
// boundary. Transient retryable statuses only become an APIError after the
// retry budget is exhausted.
type APIError struct {
	Status  int
	Code    ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// translate maps a failing response to an APIError. Callers must only pass
// responses with a status >= 400.
func translate(resp *domain.OutboundResponse) *APIError {
	code := CodeRemoteError
	switch resp.StatusCode {
	case http.StatusBadRequest:
		code = CodeValidationFailed
	case http.StatusConflict:
		code = CodeDuplicateRecord
	}

	msg := http.StatusText(resp.StatusCode)
	if len(resp.Body) > 0 {
		body := string(resp.Body)
		if len(body) > 200 {
			body = body[:200]
		}
		msg = body
	}

	return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
}
