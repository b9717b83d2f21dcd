package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Rule errors
	ErrPatternInvalid    ErrorCode = "PATTERN_INVALID"
	ErrUnhandledFileType ErrorCode = "UNHANDLED_FILE_TYPE"

	// Pipeline errors
	ErrLoaderUnknown ErrorCode = "LOADER_UNKNOWN"
	ErrStepFailed    ErrorCode = "STEP_FAILED"

	// Build errors
	ErrBuildFailed  ErrorCode = "BUILD_FAILED"
	ErrCaseMismatch ErrorCode = "CASE_MISMATCH"
	ErrTemplate     ErrorCode = "TEMPLATE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// BundlError represents a structured error with code and details
type BundlError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *BundlError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BundlError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *BundlError) Is(target error) bool {
	var targetErr *BundlError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new BundlError with the given code and message
func New(code ErrorCode, message string) *BundlError {
	return &BundlError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new BundlError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BundlError {
	return &BundlError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a BundlError
func Wrap(err error, code ErrorCode, message string) *BundlError {
	if err == nil {
		return nil
	}
	return &BundlError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *BundlError {
	if err == nil {
		return nil
	}
	return &BundlError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *BundlError) WithDetail(key string, value interface{}) *BundlError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *BundlError) WithDetails(details map[string]interface{}) *BundlError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error, or any error it wraps, has a specific code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var bundlErr *BundlError
		if !errors.As(err, &bundlErr) {
			return false
		}
		if bundlErr.Code == code {
			return true
		}
		err = bundlErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a BundlError
func GetErrorCode(err error) ErrorCode {
	var bundlErr *BundlError
	if errors.As(err, &bundlErr) {
		return bundlErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a BundlError
func GetErrorDetails(err error) map[string]interface{} {
	var bundlErr *BundlError
	if errors.As(err, &bundlErr) {
		return bundlErr.Details
	}
	return nil
}
