package errors

import (
	stderrors "errors"
	"fmt"
)

// IndexError is the structured error type for typeindex.
// It carries enough context for logging, CLI presentation and policy decisions
// (recoverable errors are isolated, configuration errors are surfaced).
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_201_SOURCE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Query, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Recoverable indicates the error is confined to one unit of work.
	Recoverable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is matching by code.
var (
	ErrSourceUnavailable      = &IndexError{Code: ErrCodeSourceUnavailable}
	ErrMalformedEntry         = &IndexError{Code: ErrCodeMalformedEntry}
	ErrCategoryNotConfigured  = &IndexError{Code: ErrCodeCategoryNotConfigured}
	ErrExtractionFailed       = &IndexError{Code: ErrCodeExtractionFailed}
	ErrUnresolvableIdentifier = &IndexError{Code: ErrCodeUnresolvableIdentifier}
	ErrDecodeFailed           = &IndexError{Code: ErrCodeDecodeFailed}
	ErrConfigInvalid          = &IndexError{Code: ErrCodeConfigInvalid}
	ErrSnapshotIO             = &IndexError{Code: ErrCodeSnapshotIO}
)

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with IndexError.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *IndexError) WithDetail(key, value string) *IndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *IndexError) WithSuggestion(suggestion string) *IndexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new IndexError with the given code and message.
// Category, severity, and recoverable flag are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:        code,
		Message:     message,
		Category:    categoryFromCode(code),
		Severity:    severityFromCode(code),
		Cause:       cause,
		Recoverable: isRecoverableCode(code),
	}
}

// Wrap creates an IndexError from an existing error.
// The error's message becomes the IndexError message.
func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// SourceUnavailable reports a container source that could not be opened.
func SourceUnavailable(locator string, cause error) *IndexError {
	return New(ErrCodeSourceUnavailable, fmt.Sprintf("source unavailable: %s", locator), cause).
		WithDetail("locator", locator)
}

// MalformedEntry reports a container entry with inconsistent size metadata.
func MalformedEntry(path string, declared int64) *IndexError {
	return New(ErrCodeMalformedEntry, fmt.Sprintf("entry %s declares size %d", path, declared), nil).
		WithDetail("path", path)
}

// CategoryNotConfigured reports a query against a category no extractor registered.
func CategoryNotConfigured(category string) *IndexError {
	return New(ErrCodeCategoryNotConfigured, fmt.Sprintf("category %s was not configured", category), nil).
		WithDetail("category", category).
		WithSuggestion("add an extractor for this category to the scan configuration")
}

// ExtractionFailed reports an extractor failure on one unit.
func ExtractionFailed(extractor, path string, cause error) *IndexError {
	return New(ErrCodeExtractionFailed, fmt.Sprintf("extractor %s failed on %s", extractor, path), cause).
		WithDetail("extractor", extractor).
		WithDetail("path", path)
}

// UnresolvableIdentifier reports a name the type resolver could not resolve.
func UnresolvableIdentifier(name string) *IndexError {
	return New(ErrCodeUnresolvableIdentifier, fmt.Sprintf("could not resolve %s", name), nil).
		WithDetail("name", name)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *IndexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *IndexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *IndexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRecoverable checks if an error is confined to one unit of work.
func IsRecoverable(err error) bool {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Recoverable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an IndexError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from an IndexError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie.Category
	}
	return ""
}
