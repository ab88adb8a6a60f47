package repository

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs"
)

// Sentinel errors shared by all storage implementations. Concrete error
// values below match these through errors.Is, so callers can branch on the
// kind without knowing the backend.
var (
	// ErrNotFound indicates the requested entity does not exist. Only
	// operations that require existence (update, delete) fail with it;
	// lookups report absence as a success with a zero payload.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a rejected input, scoped to a single field.
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates an unexpected fault in the backing store.
	ErrStorage = errors.New("storage failure")
)

// faults annotates raw driver errors with their origin before they are
// wrapped into a StorageError.
var faults = errs.Class("storekit")

// ValidationError reports a rejected input value for a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports that no entity of the given resource has the given
// identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps an unexpected fault raised by a backing store during
// the named operation. Raw driver errors never escape a repository; they
// arrive at callers inside one of these.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a storage fault for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: faults.Wrap(err)}
}
