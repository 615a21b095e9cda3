package coerce

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with [errors.Is].
var (
	// ErrCoercion is the base of every coercion failure.
	ErrCoercion = errors.New("coercion failed")
	// ErrMissingField indicates a required field was absent with no default.
	ErrMissingField = errors.New("missing required field")
	// ErrAmbiguousUnion indicates no union variant was preferable. In
	// practice prevented by the declaration-order tie break; reserved for
	// stricter modes.
	ErrAmbiguousUnion = errors.New("ambiguous union")
)

// CoercionError reports a shape mismatch at a path.
type CoercionError struct {
	Path     string
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// Unwrap makes the error match [ErrCoercion].
func (e *CoercionError) Unwrap() error { return ErrCoercion }

// MissingFieldError reports a required field absent with no default.
type MissingFieldError struct {
	Path string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field missing", e.Path)
}

// Unwrap makes the error match both [ErrMissingField] and [ErrCoercion].
func (e *MissingFieldError) Unwrap() []error {
	return []error{ErrMissingField, ErrCoercion}
}

// AmbiguousUnionError reports union variants that tied with no winner.
type AmbiguousUnionError struct {
	Path     string
	Variants []string
}

// Error implements the error interface.
func (e *AmbiguousUnionError) Error() string {
	return fmt.Sprintf("%s: ambiguous union, variants %s tied",
		e.Path, strings.Join(e.Variants, ", "))
}

// Unwrap makes the error match both [ErrAmbiguousUnion] and [ErrCoercion].
func (e *AmbiguousUnionError) Unwrap() []error {
	return []error{ErrAmbiguousUnion, ErrCoercion}
}
