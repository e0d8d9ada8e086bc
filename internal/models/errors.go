package models

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks a request rejected before any external call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError marks a failed call to an external provider (embedding or
// language model). It is surfaced as-is; retry policy belongs to the caller.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError marks a failed insert, query, or delete against the vector store.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// BatchError identifies the records that failed within a batch operation.
// Records applied before or after the failing ones are not rolled back.
type BatchError struct {
	Op         string
	Collection string
	FailedIDs  []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("store %s on %s: %d record(s) failed: %s",
		e.Op, e.Collection, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}

// NotFoundError marks a lookup of an id that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
