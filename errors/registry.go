package errors

import (
	"fmt"
	"net/http"
)

// Detail keys attached to registry errors.
const (
	DetailOperation  = "operation"
	DetailService    = "service"
	DetailStatusCode = "status_code"
	DetailBody       = "body"
	DetailTimeout    = "timeout"
)

// TransportFailure creates an AppError for a registry call that never got
// an HTTP response.
func TransportFailure(op, service string, cause error) *AppError {
	e := &AppError{
		Code:      ErrCodeTransportFailure,
		Message:   fmt.Sprintf("registry %s for %q did not complete", op, service),
		Retryable: true,
		Cause:     cause,
		Details: map[string]any{
			DetailOperation: op,
			DetailService:   service,
		},
	}
	if IsTimeout(cause) {
		e.Details[DetailTimeout] = true
	}
	return e
}

// ProtocolFailure creates an AppError for a registry response whose status
// was not 200. Server-side statuses (5xx) are retryable.
func ProtocolFailure(op, service string, status int, body string) *AppError {
	return &AppError{
		Code:      ErrCodeProtocolFailure,
		Message:   fmt.Sprintf("registry %s for %q returned %d", op, service, status),
		Retryable: status >= http.StatusInternalServerError,
		Details: map[string]any{
			DetailOperation:  op,
			DetailService:    service,
			DetailStatusCode: status,
			DetailBody:       body,
		},
	}
}

// EmptyResult creates an AppError describing a successful lookup that found
// no passing instances.
func EmptyResult(service string) *AppError {
	return &AppError{
		Code:      ErrCodeEmptyResult,
		Message:   fmt.Sprintf("no healthy instances of %q", service),
		Retryable: true,
		Details:   map[string]any{DetailService: service},
	}
}

// IsTransportFailure reports whether err is a TRANSPORT_FAILURE.
func IsTransportFailure(err error) bool { return CodeOf(err) == ErrCodeTransportFailure }

// IsProtocolFailure reports whether err is a PROTOCOL_FAILURE.
func IsProtocolFailure(err error) bool { return CodeOf(err) == ErrCodeProtocolFailure }

// IsEmptyResult reports whether err is an EMPTY_RESULT.
func IsEmptyResult(err error) bool { return CodeOf(err) == ErrCodeEmptyResult }

// StatusCode returns the registry HTTP status carried by a PROTOCOL_FAILURE,
// or 0.
func StatusCode(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return 0
	}
	code, _ := appErr.Details[DetailStatusCode].(int)
	return code
}
