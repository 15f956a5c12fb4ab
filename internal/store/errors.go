package store

import "fmt"

// ParseError means the persisted document under Key is not valid JSON for its record
// type. It is surfaced to the operator, never repaired or dropped.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
