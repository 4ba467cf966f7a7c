package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registry outcome codes.
const (
	// ErrCodeTransportFailure indicates the registry could not be reached.
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	// ErrCodeProtocolFailure indicates the registry answered with a non-success status.
	ErrCodeProtocolFailure ErrorCode = "PROTOCOL_FAILURE"
	// ErrCodeEmptyResult indicates a successful query returned no healthy instances.
	ErrCodeEmptyResult ErrorCode = "EMPTY_RESULT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransportFailure: true,
	ErrCodeEmptyResult:      true,
	ErrCodeProtocolFailure:  false,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
