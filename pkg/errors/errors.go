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
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCanceled     ErrorCode = "CANCELED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Partition layout errors
	ErrPartitionUnknown ErrorCode = "PARTITION_UNKNOWN"
	ErrPartitionInvalid ErrorCode = "PARTITION_INVALID"
	ErrPartitionSize    ErrorCode = "PARTITION_SIZE_UNKNOWN"

	// Artifact errors
	ErrSourceMissing ErrorCode = "SOURCE_MISSING"
	ErrImageCorrupt  ErrorCode = "IMAGE_CORRUPT"

	// External tool errors
	ErrToolFailed   ErrorCode = "TOOL_FAILED"
	ErrToolNotFound ErrorCode = "TOOL_NOT_FOUND"

	// Secure provisioning errors
	ErrProvisioning         ErrorCode = "PROVISIONING_FAILED"
	ErrProvisioningDeclined ErrorCode = "PROVISIONING_DECLINED"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileCreate ErrorCode = "FILE_CREATE"
	ErrFileWrite  ErrorCode = "FILE_WRITE"

	// Artifact store errors
	ErrPublish ErrorCode = "PUBLISH_FAILED"
)

// FwprovError represents a structured error with code and details
type FwprovError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *FwprovError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *FwprovError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target carries the same code
func (e *FwprovError) Is(target error) bool {
	var targetErr *FwprovError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new FwprovError with the given code and message
func New(code ErrorCode, message string) *FwprovError {
	return &FwprovError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new FwprovError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *FwprovError {
	return &FwprovError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *FwprovError {
	if err == nil {
		return nil
	}
	return &FwprovError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *FwprovError {
	if err == nil {
		return nil
	}
	return &FwprovError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *FwprovError) WithDetail(key string, value interface{}) *FwprovError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *FwprovError) WithDetails(details map[string]interface{}) *FwprovError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var fwErr *FwprovError
	if errors.As(err, &fwErr) {
		return fwErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a FwprovError
func GetErrorCode(err error) ErrorCode {
	var fwErr *FwprovError
	if errors.As(err, &fwErr) {
		return fwErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a FwprovError
func GetErrorDetails(err error) map[string]interface{} {
	var fwErr *FwprovError
	if errors.As(err, &fwErr) {
		return fwErr.Details
	}
	return nil
}
