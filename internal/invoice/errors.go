package invoice

import (
	"errors"
	"fmt"
)

// Common invoice errors
var (
	// ErrNoBillableLines is returned when an invoice would have no lines.
	// Batch callers treat it as a per-contract skip.
	ErrNoBillableLines = errors.New("no billable lines")

	// ErrNotFound is returned when an invoice requested by id does not exist.
	ErrNotFound = errors.New("invoice not found")

	// ErrInvalidID is returned for invoice ids that cannot name a file of their contract.
	ErrInvalidID = errors.New("invalid invoice id")

	// ErrInvalidPeriod is returned for period arguments out of range.
	ErrInvalidPeriod = errors.New("invalid billing period")
)

// NoBillableLinesError names the contract that had nothing to invoice.
type NoBillableLinesError struct {
	ContractID string
	InvoiceID  string
}

// Error implements the error interface.
func (e *NoBillableLinesError) Error() string {
	return fmt.Sprintf("invoice %s: %v for contract %s", e.InvoiceID, ErrNoBillableLines, e.ContractID)
}

// Is matches ErrNoBillableLines.
func (e *NoBillableLinesError) Is(target error) bool {
	return target == ErrNoBillableLines
}

// StoreError wraps failures of the invoice store with the operation and invoice id.
type StoreError struct {
	// Op is the operation that failed (e.g., "Save", "MarkSent").
	Op string

	// InvoiceID is the invoice the operation worked on.
	InvoiceID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("invoice: %s %s failed: %v", e.Op, e.InvoiceID, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newStoreError(op, invoiceID string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, InvoiceID: invoiceID, Err: err}
}
