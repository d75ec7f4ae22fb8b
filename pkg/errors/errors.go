package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input or configuration validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// ConfigError aggregates every problem found in an assembled configuration.
type ConfigError struct {
	*BaseError
	Problems []error
}

// NewConfigError creates a configuration error listing all problems.
func NewConfigError(problems []error) *ConfigError {
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Error())
	}
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfigError,
			message: "invalid configuration: " + strings.Join(msgs, "; "),
			cause:   errors.Join(problems...),
			stack:   captureStack(1),
		},
		Problems: problems,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.message
}

// InternalError represents an internal error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// ServiceError represents a failure reported by the node service layer.
type ServiceError struct {
	*BaseError
	Service string
}

// NewServiceError creates a new service error.
func NewServiceError(service, message string, cause error) *ServiceError {
	if message == "" {
		message = fmt.Sprintf("%s failed", service)
	}
	return &ServiceError{
		BaseError: &BaseError{
			code:    CodeServiceUnavailable,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Service: service,
	}
}

// TimeoutError represents a timeout error.
type TimeoutError struct {
	*BaseError
	Operation string
	Duration  string
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(operation, duration string) *TimeoutError {
	message := "operation timeout"
	if operation != "" {
		message = fmt.Sprintf("%s timeout", operation)
	}
	return &TimeoutError{
		BaseError: &BaseError{
			code:    CodeTimeout,
			message: message,
			stack:   captureStack(1),
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}
