package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrStorageUnavailable matches every *StorageUnavailableError through errors.Is.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrNotFound        = errors.New("not found")
	ErrAccountReadOnly = errors.New("archived account is read-only")
	ErrAccountInUse    = errors.New("account still has transactions")
	ErrDefaultAccount  = errors.New("default account cannot be archived or deleted")

	// ErrTotalOverflow is returned when a summary total does not fit in int64 cents.
	ErrTotalOverflow = errors.New("total exceeds the representable amount")
)

// ValidationError reports malformed or out-of-range user input.
// Nothing has been written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageUnavailableError reports that the backing file could not be
// created, opened, read or written. It is never retried.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StorageUnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Unavailable wraps err as a *StorageUnavailableError unless it already
// carries a domain meaning (validation, not found, account rules).
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{ErrValidation, ErrStorageUnavailable, ErrNotFound, ErrAccountReadOnly, ErrAccountInUse, ErrDefaultAccount} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &StorageUnavailableError{Op: op, Err: err}
}
