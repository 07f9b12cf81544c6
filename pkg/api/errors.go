package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for every failed request. StatusCode is the HTTP
// status, 408 for a client-side timeout, or 0 for other network failures.
type APIError struct {
	Message      string
	StatusCode   int
	ResponseBody any
	// Operation is "METHOD path".
	Operation string
	// Err is the underlying transport error, nil for HTTP status errors.
	Err error
}

func (e *APIError) Error() string {
	if e.Operation == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the error is a client-side timeout.
func (e *APIError) IsTimeout() bool {
	return e.StatusCode == http.StatusRequestTimeout
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Exit codes used by one-shot mode.
const (
	ExitSuccess         = 0
	ExitGenericError    = 1
	ExitValidationError = 2
	ExitAuthError       = 3
	ExitConnectionError = 4
	ExitNotFoundError   = 5
	ExitConflictError   = 6
	ExitRateLimitError  = 7
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		return ExitGenericError
	}
	switch apiErr.StatusCode {
	case 0, http.StatusRequestTimeout:
		return ExitConnectionError
	case http.StatusUnauthorized, http.StatusForbidden:
		return ExitAuthError
	case http.StatusNotFound:
		return ExitNotFoundError
	case http.StatusConflict:
		return ExitConflictError
	case http.StatusTooManyRequests:
		return ExitRateLimitError
	default:
		return ExitGenericError
	}
}

// errorMessage extracts a readable message from an error response body.
func errorMessage(body any, status int) string {
	if m, ok := body.(map[string]any); ok {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
