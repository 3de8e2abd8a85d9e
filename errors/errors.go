package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified fixkit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf returns the error code of err, or ErrCodeInternal when err is not
// an AppError. Returns an empty code for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for an entity that was not found.
func NotFound(model string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("no %s matched the given criteria", model),
		Retryable: false,
		Details:   map[string]any{"model": model},
	}
}

// AlreadyExists creates a new AppError for an entity that already exists.
func AlreadyExists(model string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("a %s with these details already exists", model),
		Retryable: false,
		Details:   map[string]any{"model": model},
	}
}

// UnexpectedRecord creates a new AppError for a record that should be absent.
func UnexpectedRecord(model string, count int64) *AppError {
	return &AppError{
		Code: ErrCodeUnexpectedRecord, Message: fmt.Sprintf("found %d %s matching criteria expected to be absent", count, model),
		Retryable: false,
		Details:   map[string]any{"model": model, "count": count},
	}
}

// NoFactory creates a new AppError for a model with no registered data creator.
func NoFactory(model string) *AppError {
	return &AppError{
		Code: ErrCodeNoFactory, Message: fmt.Sprintf("no factory registered for model %s", model),
		Retryable: false,
		Details:   map[string]any{"model": model},
	}
}

// NotStarted creates a new AppError for use of a stopped module.
func NotStarted(component string) *AppError {
	return &AppError{
		Code: ErrCodeNotStarted, Message: fmt.Sprintf("%s used before Start or after Stop", component),
		Retryable: false,
		Details:   map[string]any{"component": component},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}

// InvalidPath creates a new AppError for an association path that does not
// resolve against the model's schema.
func InvalidPath(path, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidPath, Message: fmt.Sprintf("invalid association path %q: %s", path, reason),
		Retryable: false,
		Details:   map[string]any{"path": path},
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("operation %s timed out", operation),
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// ConnectionFailed creates a new AppError for a failed database connection.
func ConnectionFailed(target string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to connect to %s", target),
		Retryable: true,
		Details:   map[string]any{"target": target},
	}
}

// DatabaseError creates a new AppError for a database error.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "a database error occurred",
		Retryable: true, Cause: cause,
	}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Retryable: false, Cause: cause,
	}
}
