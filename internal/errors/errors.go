package errors

import (
	"errors"
	"fmt"
)

// BMError is the structured error type for bmsearch.
// It provides rich context for error handling, logging, and user presentation.
type BMError struct {
	// Code is the unique error code (e.g., "ERR_206_SOURCE_MALFORMED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Source, Validation, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BMError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BMError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with BMError.
func (e *BMError) Is(target error) bool {
	if t, ok := target.(*BMError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *BMError) WithDetail(key, value string) *BMError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *BMError) WithSuggestion(suggestion string) *BMError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BMError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *BMError {
	return &BMError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a BMError from an existing error.
// The error's message becomes the BMError message.
func Wrap(code string, err error) *BMError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BMError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// SourceUnavailable reports a bookmark store that does not exist.
func SourceUnavailable(path string, cause error) *BMError {
	return New(ErrCodeSourceUnavailable, "bookmark store not found", cause).WithDetail("path", path)
}

// SourceMalformed reports a bookmark store that cannot be parsed.
func SourceMalformed(path string, cause error) *BMError {
	return New(ErrCodeSourceMalformed, "bookmark store could not be parsed", cause).WithDetail("path", path)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *BMError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *BMError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var be *BMError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var be *BMError
	if errors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a BMError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var be *BMError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from a BMError anywhere in the chain.
func GetCategory(err error) Category {
	var be *BMError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}
