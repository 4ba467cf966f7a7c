// Package errors provides the structured error type used across svcreg.
//
// Registry calls fail in one of two ways: the request never produced an
// HTTP response (TRANSPORT_FAILURE: connection refused, DNS failure,
// timeout) or the registry answered with a non-success status
// (PROTOCOL_FAILURE). A successful query with zero healthy instances is
// EMPTY_RESULT, a normal outcome rather than a failure. All three are
// represented by *AppError so callers and observers can branch on Code.
package errors
