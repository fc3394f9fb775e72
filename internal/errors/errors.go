package errors

import (
	"context"
	"errors"
	"fmt"
)

// ClassfindError is the structured error type for classfind.
// It carries a stable code plus context for logging and user presentation.
type ClassfindError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
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
func (e *ClassfindError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ClassfindError) Unwrap() error {
	return e.Cause
}

// Is matches another ClassfindError by code, so errors.Is works with sentinel values.
func (e *ClassfindError) Is(target error) bool {
	if t, ok := target.(*ClassfindError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *ClassfindError) WithDetail(key, value string) *ClassfindError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ClassfindError) WithSuggestion(suggestion string) *ClassfindError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ClassfindError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ClassfindError {
	return &ClassfindError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ClassfindError from an existing error.
// The error's message becomes the ClassfindError message.
func Wrap(code string, err error) *ClassfindError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ClassfindError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ClassfindError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ClassfindError {
	return New(ErrCodeInternal, message, cause)
}

// SearchError classifies a failed search: an expired deadline becomes
// ERR_302_SEARCH_TIMEOUT, a cancelled context ERR_303_SEARCH_CANCELLED, anything
// else ERR_502_SEARCH_FAILED. Structured errors pass through unchanged.
func SearchError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return New(ErrCodeSearchTimeout, "search timed out", err).
			WithSuggestion("Use a more specific pattern or raise search.timeout.")
	case errors.Is(err, context.Canceled):
		return New(ErrCodeSearchCancelled, "search was cancelled", err)
	default:
		return Wrap(ErrCodeSearchFailed, err)
	}
}

// As returns the first ClassfindError in err's chain.
func As(err error) (*ClassfindError, bool) {
	var ce *ClassfindError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	ce, ok := As(err)
	return ok && ce.Retryable
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	ce, ok := As(err)
	return ok && ce.Severity == SeverityFatal
}

// GetCode extracts the error code, or "" if err carries none.
func GetCode(err error) string {
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category, or "" if err carries none.
func GetCategory(err error) Category {
	if ce, ok := As(err); ok {
		return ce.Category
	}
	return ""
}
