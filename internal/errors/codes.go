// Package errors provides structured error handling for bmsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Bookmark source errors (file, database)
//   - 3XX: Environment errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategorySource indicates an unreadable or malformed bookmark store.
	CategorySource Category = "SOURCE"
	// CategoryEnvironment indicates the host offers no usable paths or sockets.
	CategoryEnvironment Category = "ENVIRONMENT"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
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
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Source errors (200-299)
	ErrCodeSourceUnavailable = "ERR_201_SOURCE_UNAVAILABLE"
	ErrCodeSourcePermission  = "ERR_202_SOURCE_PERMISSION"
	ErrCodeSourceMalformed   = "ERR_206_SOURCE_MALFORMED"

	// Environment errors (300-399)
	ErrCodeUnsupportedEnvironment = "ERR_301_UNSUPPORTED_ENVIRONMENT"
	ErrCodeDaemonUnavailable      = "ERR_302_DAEMON_UNAVAILABLE"
	ErrCodeDaemonLocked           = "ERR_303_DAEMON_LOCKED"
	ErrCodePreflightFailed        = "ERR_304_PREFLIGHT_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidLimit = "ERR_402_INVALID_LIMIT"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeRebuildFailed = "ERR_505_REBUILD_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategorySource
	case '3':
		return CategoryEnvironment
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeDaemonLocked:
		return SeverityFatal
	case ErrCodeSourceUnavailable, ErrCodeSourceMalformed, ErrCodeSourcePermission,
		ErrCodeUnsupportedEnvironment:
		// Source problems never abort a scan; the store is just left out.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeDaemonUnavailable, ErrCodeSourcePermission:
		return true
	default:
		return false
	}
}
