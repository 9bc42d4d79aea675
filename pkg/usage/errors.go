package usage

import (
	"errors"
	"fmt"
)

// ErrPersistence is wrapped by every failure to record a listing after the
// generation succeeded.
var ErrPersistence = errors.New("listing persistence failed")

// PersistenceError reports a listing that could not be stored. The
// reservation that paid for it has already been committed.
type PersistenceError struct {
	ListingID string
	AccountID string
	Cause     error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist listing [listing_id=%s, account_id=%s]: %v", e.ListingID, e.AccountID, e.Cause)
}

// Unwrap returns ErrPersistence and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Cause}
}

// StorageError represents an error from a listing storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "store", "list", "delete", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RetentionError represents a failed pruning cycle.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// ExportError represents a failed listing export.
type ExportError struct {
	Format string // "json", "csv"
	Count  int    // Listings written before the failure
	Cause  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, count=%d]: %v", e.Format, e.Count, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}
