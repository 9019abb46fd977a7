package metadata

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from store operations.
//
// These are business logic errors (entity not found, permission denied, etc.)
// as opposed to infrastructure errors (disk failure, network error), which are
// returned wrapped with fmt.Errorf.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the reference related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a store error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested folder, file or content doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAccessDenied indicates the caller identity is not allowed to act on the entity
	ErrAccessDenied

	// ErrPermissionDenied indicates a specific right (view/edit/delete) is missing
	ErrPermissionDenied

	// ErrAlreadyExists indicates an entity with the reference already exists
	ErrAlreadyExists

	// ErrNotEmpty indicates a folder still has children
	ErrNotEmpty

	// ErrIsFolder indicates operation expected a file but got a folder
	ErrIsFolder

	// ErrNotFolder indicates operation expected a folder but got a file
	ErrNotFolder

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: zero reference, empty name, file without parents
	ErrInvalidArgument

	// ErrIOError indicates an I/O error occurred in the backing storage
	ErrIOError

	// ErrNotSupported indicates operation is not supported by implementation
	ErrNotSupported
)

var errorCodeNames = map[ErrorCode]string{
	ErrNotFound:         "not found",
	ErrAccessDenied:     "access denied",
	ErrPermissionDenied: "permission denied",
	ErrAlreadyExists:    "already exists",
	ErrNotEmpty:         "not empty",
	ErrIsFolder:         "is a folder",
	ErrNotFolder:        "not a folder",
	ErrInvalidArgument:  "invalid argument",
	ErrIOError:          "i/o error",
	ErrNotSupported:     "not supported",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error code %d", int(c))
}

// NewNotFoundError returns a StoreError with code ErrNotFound for ref.
func NewNotFoundError(ref Reference, kind string) *StoreError {
	return &StoreError{
		Code:    ErrNotFound,
		Message: kind + " not found",
		Path:    ref.String(),
	}
}

// NewAlreadyExistsError returns a StoreError with code ErrAlreadyExists for ref.
func NewAlreadyExistsError(ref Reference) *StoreError {
	return &StoreError{
		Code:    ErrAlreadyExists,
		Message: "entity already exists",
		Path:    ref.String(),
	}
}

// NewInvalidArgumentError returns a StoreError with code ErrInvalidArgument.
func NewInvalidArgumentError(message string, ref Reference) *StoreError {
	return &StoreError{
		Code:    ErrInvalidArgument,
		Message: message,
		Path:    ref.String(),
	}
}

// IsErrorCode reports whether err (or any error it wraps) is a StoreError
// with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a not-found StoreError.
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrNotFound)
}
