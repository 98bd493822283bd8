// Package errors provides structured error handling for typeindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (sources, container entries, snapshots)
//   - 4XX: Query and validation errors
//   - 5XX: Internal and extraction errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates source, archive and snapshot I/O errors.
	CategoryIO Category = "IO"
	// CategoryQuery indicates errors surfaced to the caller of a query.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates extraction and other internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeSourceUnavailable = "ERR_201_SOURCE_UNAVAILABLE"
	ErrCodeMalformedEntry    = "ERR_202_MALFORMED_ENTRY"
	ErrCodeSnapshotIO        = "ERR_203_SNAPSHOT_IO"

	// Query errors (400-499)
	ErrCodeCategoryNotConfigured = "ERR_401_CATEGORY_NOT_CONFIGURED"
	ErrCodeInvalidInput          = "ERR_402_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal               = "ERR_501_INTERNAL"
	ErrCodeExtractionFailed       = "ERR_502_EXTRACTION_FAILED"
	ErrCodeUnresolvableIdentifier = "ERR_503_UNRESOLVABLE_IDENTIFIER"
	ErrCodeDecodeFailed           = "ERR_504_DECODE_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_SOURCE_UNAVAILABLE")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if isRecoverableCode(code) {
		return SeverityWarning
	}
	switch code {
	case ErrCodeConfigInvalid, ErrCodeConfigNotFound:
		return SeverityFatal
	}
	return SeverityError
}

// isRecoverableCode reports whether an error with this code is isolated to
// one unit of work (a unit, a source, a closure branch) and never aborts a scan.
func isRecoverableCode(code string) bool {
	switch code {
	case ErrCodeSourceUnavailable, ErrCodeMalformedEntry, ErrCodeExtractionFailed,
		ErrCodeUnresolvableIdentifier, ErrCodeDecodeFailed:
		return true
	default:
		return false
	}
}
