// Package errors carries the coded error type used across yabridgectl.
// Codes give tests and the error renderer something stable to match on,
// independent of message wording.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category
type ErrorCode string

const (
	// General errors
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigSave    ErrorCode = "CONFIG_SAVE"
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Resolution errors: yabridge's own files could not be located
	ErrFilesMissing ErrorCode = "FILES_MISSING"

	// Discovery errors
	ErrDirScan     ErrorCode = "DIR_SCAN"
	ErrBinaryParse ErrorCode = "BINARY_PARSE"

	// Reconciliation errors
	ErrInstall ErrorCode = "INSTALL"
	ErrPrune   ErrorCode = "PRUNE"

	// Environment verification errors
	ErrVerify ErrorCode = "VERIFY"

	// Filesystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
)

// CtlError is an error with a stable code and an optional wrapped cause
type CtlError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

func (e *CtlError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CtlError) Unwrap() error {
	return e.Wrapped
}

// Is matches two CtlErrors by code, so errors.Is can compare them without
// identical messages
func (e *CtlError) Is(target error) bool {
	var other *CtlError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New returns a coded error
func New(code ErrorCode, message string) *CtlError {
	return &CtlError{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message
func Newf(code ErrorCode, format string, args ...any) *CtlError {
	return &CtlError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *CtlError {
	if err == nil {
		return nil
	}
	return &CtlError{Code: code, Message: message, Wrapped: err}
}

// Wrapf annotates err with a code and a formatted message. A nil err stays
// nil.
func Wrapf(err error, code ErrorCode, format string, args ...any) *CtlError {
	if err == nil {
		return nil
	}
	return &CtlError{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// IsErrorCode reports whether any error in err's chain carries code
func IsErrorCode(err error, code ErrorCode) bool {
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) {
		return ctlErr.Code == code
	}
	return false
}

// Is reports whether any error in err's chain matches target. Re-exported so
// callers don't need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
