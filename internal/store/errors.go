package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// ErrCodeUnavailable is a connectivity or configuration problem.
	// Nothing has been written when it is returned.
	ErrCodeUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// ErrCodeSequenceMissing means the expected sequence counter row does
	// not exist. Fatal for the template being materialized.
	ErrCodeSequenceMissing ErrorCode = "SEQUENCE_MISSING"

	// ErrCodeMaterialization is any write step failing. The transaction
	// has been rolled back when it is returned.
	ErrCodeMaterialization ErrorCode = "MATERIALIZATION_FAILED"
)

// StoreError wraps a failure from the record store with its category and
// the operation that produced it.
type StoreError struct {
	Code ErrorCode
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Op)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is a connectivity failure.
// Uses errors.As to handle wrapped errors.
func IsUnavailable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == ErrCodeUnavailable
}

// IsSequenceMissing reports whether err is a missing counter row.
func IsSequenceMissing(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == ErrCodeSequenceMissing
}
