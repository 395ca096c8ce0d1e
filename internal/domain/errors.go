package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across stores and adapters.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrSessionExpired signals that a broker session's credentials are no
	// longer valid. Adapters recover from it at most once via a silent
	// re-authentication before surfacing it.
	ErrSessionExpired = errors.New("broker session expired")
	// ErrAdapterNotImplemented is returned by brokers that are declared but
	// not wired to a live endpoint. A stub must never masquerade as a
	// verified zero-trade response.
	ErrAdapterNotImplemented = errors.New("broker adapter not implemented")
)

// ParseError reports an input file that could not be decoded as delimited
// text with a header row.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldMappingError reports a column mapping whose target header does not
// exist in the imported file.
type FieldMappingError struct {
	Field  string // canonical field name
	Column string // missing header name
}

func (e *FieldMappingError) Error() string {
	return fmt.Sprintf("field mapping error: column %q for field %q not found in header", e.Column, e.Field)
}

// ValueError reports a field value that failed type, range, or enum
// validation. Row is the zero-based data row index (excluding the header).
type ValueError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d: field %q: invalid value %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// AuthError reports rejected credentials or an unreachable authentication
// endpoint for a brokerage connection. It is distinct from NetworkError so
// callers can prompt for new credentials instead of retrying.
type AuthError struct {
	Broker string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Broker, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure against a brokerage endpoint.
// Adapters do not retry it internally; the caller decides.
type NetworkError struct {
	Broker string
	Op     string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: network error: %v", e.Broker, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvariantViolation reports a normalized record that fails a canonical data
// model invariant.
type InvariantViolation struct {
	Field  string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s %s", e.Field, e.Reason)
}
