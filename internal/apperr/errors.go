// Package apperr defines the error taxonomy shared by the saga, the
// gateways and the HTTP layer. Handlers map these onto status codes;
// nothing below the handler layer knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError marks a malformed inbound payload. The saga never
// starts when one of these is raised.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError marks an entity absent locally or upstream.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// NewNotFound builds a NotFoundError for the given entity and lookup key.
func NewNotFound(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// RemoteFailureError wraps a non-2xx or transport-level failure from an
// upstream gateway. Status and Body carry the upstream response for
// diagnostics; Status is 0 for transport errors.
type RemoteFailureError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *RemoteFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
}

func (e *RemoteFailureError) Unwrap() error { return e.Err }

// ConsistencyGapError marks a saga abort that happened after a remote
// mutation had already committed. It wraps the step failure so the
// original cause stays visible; the intent log records the gap for the
// reconciliation sweep.
type ConsistencyGapError struct {
	Step string
	Err  error
}

func (e *ConsistencyGapError) Error() string {
	return fmt.Sprintf("saga aborted at %s after remote state was mutated: %v", e.Step, e.Err)
}

func (e *ConsistencyGapError) Unwrap() error { return e.Err }

// ErrAccountBusy is returned when another saga holds the per-account
// lease. Callers should retry after the lease expires.
var ErrAccountBusy = errors.New("account is locked by another transaction in flight")

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
