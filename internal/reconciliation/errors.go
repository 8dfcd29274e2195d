package reconciliation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStatement is returned for statements without a header row.
	ErrEmptyStatement = errors.New("statement is empty")

	// ErrNoEntries is returned when an import has nothing new to store.
	ErrNoEntries = errors.New("statement has no new entries")

	// ErrHeaderMismatch is matched by *HeaderMismatchError.
	ErrHeaderMismatch = errors.New("statement header mismatch")
)

// HeaderMismatchError reports the first column where a statement header differs
// from the expected one.
type HeaderMismatchError struct {
	Column   int // 0-based, len(expected) when only the column count differs
	Expected string
	Got      string
}

// Error implements the error interface.
func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("%v: column %d: expected %q but got %q", ErrHeaderMismatch, e.Column+1, e.Expected, e.Got)
}

// Is matches ErrHeaderMismatch.
func (e *HeaderMismatchError) Is(target error) bool {
	return target == ErrHeaderMismatch
}

// RowError wraps a failure to parse one statement row.
type RowError struct {
	Row   int    // 1-based line in the statement, the header is row 1
	Field string // Column that failed
	Value string
	Err   error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RowError) Unwrap() error {
	return e.Err
}

// AmountError reports an amount that cannot be parsed as a decimal.
type AmountError struct {
	Value string
	Err   error
}

// Error implements the error interface.
func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %v", e.Value, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AmountError) Unwrap() error {
	return e.Err
}
