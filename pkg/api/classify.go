package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

type failureKind int

const (
	failureUnknown failureKind = iota
	failureTimeout
	failureTransient
	failurePermanent
)

var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryableStatus reports whether an HTTP status is retried.
func IsRetryableStatus(status int) bool {
	return retryableStatuses[status]
}

// classifyTransportError sorts a transport error. Permanent failures are
// checked before timeouts so an unreachable host is never retried.
func classifyTransportError(err error) failureKind {
	if err == nil {
		return failureUnknown
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return failurePermanent
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return failurePermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return failureTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "host is unreachable"),
		strings.Contains(msg, "network is unreachable"):
		return failurePermanent
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return failureTimeout
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "socket hang up"):
		return failureTransient
	}
	return failureUnknown
}

// ShouldRetry decides whether a failed attempt is retried.
func ShouldRetry(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		k := classifyTransportError(err)
		return k == failureTimeout || k == failureTransient
	}
	if apiErr.Err == nil {
		return IsRetryableStatus(apiErr.StatusCode)
	}
	switch classifyTransportError(apiErr.Err) {
	case failureTimeout, failureTransient:
		return true
	default:
		return false
	}
}
