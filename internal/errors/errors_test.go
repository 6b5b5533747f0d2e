package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("unexpected end of JSON input")

	// When: wrapping with BMError
	bmErr := SourceMalformed("/tmp/Bookmarks", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, bmErr)
	assert.Equal(t, originalErr, errors.Unwrap(bmErr))
	assert.True(t, errors.Is(bmErr, originalErr))
}

func TestBMError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "source error",
			code:     ErrCodeSourceUnavailable,
			message:  "bookmark store not found",
			expected: "[ERR_201_SOURCE_UNAVAILABLE] bookmark store not found",
		},
		{
			name:     "validation error",
			code:     ErrCodeInvalidLimit,
			message:  "limit must be non-negative",
			expected: "[ERR_402_INVALID_LIMIT] limit must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestBMError_Is_MatchesByCode(t *testing.T) {
	err1 := SourceMalformed("a", nil)
	err2 := SourceMalformed("b", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, SourceUnavailable("a", nil)))
}

func TestCategoryAndSeverity_DerivedFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeSourceMalformed, CategorySource, SeverityWarning},
		{ErrCodeUnsupportedEnvironment, CategoryEnvironment, SeverityWarning},
		{ErrCodeDaemonLocked, CategoryEnvironment, SeverityFatal},
		{ErrCodeInvalidLimit, CategoryValidation, SeverityError},
		{ErrCodeRebuildFailed, CategoryInternal, SeverityError},
		{"BAD", CategoryInternal, SeverityError},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			err := New(tc.code, "msg", nil)
			assert.Equal(t, tc.category, err.Category)
			assert.Equal(t, tc.severity, err.Severity)
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	// Given: a BMError wrapped by fmt.Errorf
	err := fmt.Errorf("connect: %w", New(ErrCodeDaemonUnavailable, "daemon not running", nil))

	// Then: helpers find it in the chain
	assert.Equal(t, ErrCodeDaemonUnavailable, GetCode(err))
	assert.Equal(t, CategoryEnvironment, GetCategory(err))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
