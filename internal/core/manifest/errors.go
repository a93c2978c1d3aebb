// Package manifest contains pure functions for parsing the function manifest.
// This is part of the Functional Core - all functions are pure with no I/O.
package manifest

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyInput         = errors.New("manifest is empty")
	ErrInvalidSyntax      = errors.New("invalid manifest syntax")
	ErrUnsupportedFormat  = errors.New("unsupported manifest format")
	ErrNoFunctions        = errors.New("manifest must declare at least one function")
	ErrDuplicateFunction  = errors.New("function declared more than once")
	ErrFunctionNotFound   = errors.New("function not found in manifest")
	ErrInvalidFunctionDef = errors.New("invalid function definition")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "functions[2].name"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
