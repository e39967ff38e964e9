// Package apperr defines the error taxonomy surfaced to the user.
//
// No error here is fatal. Callers report the error and keep the session.
package apperr

import (
	"errors"
	"fmt"
)

// Code categorizes application errors.
type Code string

const (
	// CodeStorageFailure indicates the store rejected an operation
	// (unavailable, aborted transaction, violated key constraint).
	CodeStorageFailure Code = "STORAGE_FAILURE"

	// CodeInvalidBackup indicates an import payload has neither documents nor contacts.
	CodeInvalidBackup Code = "INVALID_BACKUP"

	// CodeConstraintViolation indicates input failed validation before any storage call.
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"

	// CodeNotFound indicates a record with the given key does not exist.
	CodeNotFound Code = "NOT_FOUND"
)

// Error is an application error with a category.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the operation that failed, e.g. "put documents".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StorageFailure wraps a store error.
func StorageFailure(op string, err error) *Error {
	return &Error{Code: CodeStorageFailure, Op: op, Err: err}
}

// InvalidBackup reports an unusable import payload.
func InvalidBackup(message string, err error) *Error {
	return &Error{Code: CodeInvalidBackup, Op: "import", Message: message, Err: err}
}

// ConstraintViolation reports invalid input.
func ConstraintViolation(op, message string) *Error {
	return &Error{Code: CodeConstraintViolation, Op: op, Message: message}
}

// NotFound reports a missing record.
func NotFound(table string, key any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Op:      "get " + table,
		Message: fmt.Sprintf("no record with key %v", key),
	}
}

// CodeOf extracts the category from err. Returns "" for foreign errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsStorageFailure returns true if err is a storage failure.
func IsStorageFailure(err error) bool { return CodeOf(err) == CodeStorageFailure }

// IsInvalidBackup returns true if err is an invalid backup error.
func IsInvalidBackup(err error) bool { return CodeOf(err) == CodeInvalidBackup }

// IsConstraintViolation returns true if err is a validation error.
func IsConstraintViolation(err error) bool { return CodeOf(err) == CodeConstraintViolation }

// IsNotFound returns true if err reports a missing record.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
