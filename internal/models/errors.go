package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record with the requested identity is absent.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a missing or malformed field detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateError reports a case-insensitive uniqueness violation on Field.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q is already in use", e.Field, e.Value)
}

// SoftFailure wraps an outbound call (email, geocode) that failed without affecting
// any stored record.
type SoftFailure struct {
	Op      string
	Message string
	Err     error
}

func (e *SoftFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *SoftFailure) Unwrap() error { return e.Err }
