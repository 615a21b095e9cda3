package tryparse

import (
	"errors"
	"fmt"

	"github.com/microagents/tryparse/flex"
)

// Sentinel errors for use with [errors.Is].
var (
	// ErrNoInput indicates empty or whitespace-only input.
	ErrNoInput = errors.New("no input")
	// ErrNoCandidates indicates every strategy produced nothing.
	ErrNoCandidates = errors.New("no candidates")
	// ErrOverDeepInput indicates the preprocessor truncated the input at
	// the bracket depth cap and no candidate succeeded afterwards.
	ErrOverDeepInput = errors.New("input exceeded depth cap")
	// ErrInvalidOption indicates an invalid configuration value, such as an
	// unknown strategy name in [Config.NewParser].
	ErrInvalidOption = errors.New("invalid option")
)

// ParseError is returned when candidates were extracted but none coerced
// into the target schema. Err is the coercion failure of the best-scoring
// candidate; Candidates is the full ranked pool for diagnostic inspection.
type ParseError struct {
	Err        error
	Candidates []*flex.Value
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("no candidate coerced (%d tried): %v", len(e.Candidates), e.Err)
}

// Unwrap exposes the best attempt's failure to [errors.Is] and [errors.As].
func (e *ParseError) Unwrap() error { return e.Err }
