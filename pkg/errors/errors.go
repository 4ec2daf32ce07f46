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

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Scanner readiness
	ErrReadinessTimeout ErrorCode = "READINESS_TIMEOUT"

	// Interactive dialogue errors
	ErrDialogueSpawn    ErrorCode = "DIALOGUE_SPAWN"
	ErrDialogueMismatch ErrorCode = "DIALOGUE_MISMATCH"
	ErrDialogueTimeout  ErrorCode = "DIALOGUE_TIMEOUT"

	// External command errors
	ErrCommandSpawn  ErrorCode = "COMMAND_SPAWN"
	ErrCommandFailed ErrorCode = "COMMAND_FAILED"

	// Manager linking errors
	ErrLinkFailed ErrorCode = "LINK_FAILED"
	ErrLinkFatal  ErrorCode = "LINK_FATAL"
)

// NessusError represents a structured error with code and details
type NessusError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *NessusError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *NessusError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *NessusError) Is(target error) bool {
	var targetErr *NessusError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new NessusError with the given code and message
func New(code ErrorCode, message string) *NessusError {
	return &NessusError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new NessusError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *NessusError {
	return &NessusError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a NessusError
func Wrap(err error, code ErrorCode, message string) *NessusError {
	if err == nil {
		return nil
	}
	return &NessusError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *NessusError {
	if err == nil {
		return nil
	}
	return &NessusError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *NessusError) WithDetail(key string, value interface{}) *NessusError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var nessusErr *NessusError
	if errors.As(err, &nessusErr) {
		return nessusErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a NessusError
func GetErrorCode(err error) ErrorCode {
	var nessusErr *NessusError
	if errors.As(err, &nessusErr) {
		return nessusErr.Code
	}
	return ErrUnknown
}
