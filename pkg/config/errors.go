package config

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every configuration error
var ErrInvalid = errors.New("invalid configuration")

// Error is a fatal startup error caused by the environment or the desired-state
// file. It matches ErrInvalid with errors.Is.
type Error struct {
	Source string // File path or environment variable
	Field  string // Offending key, empty when the whole source is at fault
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %s: %v", e.Source, e.Field, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

// Errorf builds an Error with a formatted cause
func Errorf(source, field, format string, args ...any) *Error {
	return &Error{Source: source, Field: field, Err: fmt.Errorf(format, args...)}
}
