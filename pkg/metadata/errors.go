package metadata

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from catalog and namespace operations.
//
// These are business logic errors (entry not found, catalog full, etc.)
// as opposed to infrastructure errors (backend failure).
//
// Driver bindings translate StoreError codes to their own error space
// (e.g., errno values for FUSE).
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the entry name or path related to the error (if applicable)
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
	// ErrNotFound indicates the path does not resolve in the expected catalog
	ErrNotFound ErrorCode = iota

	// ErrCapacityExceeded indicates a catalog is at its configured bound
	ErrCapacityExceeded

	// ErrNotEmpty indicates a directory still has descendants
	ErrNotEmpty

	// ErrAlreadyExists indicates the name is already taken
	ErrAlreadyExists

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty path segment, negative offset, deleting the root
	ErrInvalidArgument

	// ErrNameTooLong indicates a name exceeds the configured length bound
	ErrNameTooLong

	// ErrTooLarge indicates file content would exceed the configured bound
	ErrTooLarge

	// ErrIOError indicates the catalog backend failed
	ErrIOError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrCapacityExceeded:
		return "CapacityExceeded"
	case ErrNotEmpty:
		return "NotEmpty"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrNameTooLong:
		return "NameTooLong"
	case ErrTooLarge:
		return "TooLarge"
	case ErrIOError:
		return "IOError"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// NewError builds a StoreError.
func NewError(code ErrorCode, message, path string) *StoreError {
	return &StoreError{Code: code, Message: message, Path: path}
}

// NewNotFoundError returns the standard not-found error for a path.
func NewNotFoundError(path string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "no such file or directory", Path: path}
}

// CodeOf extracts the ErrorCode from err.
//
// Errors that are not (and do not wrap) a StoreError are reported as
// ErrIOError with ok=false.
func CodeOf(err error) (ErrorCode, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return ErrIOError, false
}

// HasCode reports whether err is a StoreError with the given code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsNotFoundError reports whether err is an ErrNotFound StoreError.
func IsNotFoundError(err error) bool {
	return HasCode(err, ErrNotFound)
}

// IsCapacityExceededError reports whether err is an ErrCapacityExceeded StoreError.
func IsCapacityExceededError(err error) bool {
	return HasCode(err, ErrCapacityExceeded)
}

// IsNotEmptyError reports whether err is an ErrNotEmpty StoreError.
func IsNotEmptyError(err error) bool {
	return HasCode(err, ErrNotEmpty)
}
