package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Error wrapping preserves original error
func TestIndexError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with IndexError
	indexErr := New(ErrCodeWriteFailed, "write failed", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, indexErr)
	assert.Equal(t, originalErr, errors.Unwrap(indexErr))
	assert.True(t, errors.Is(indexErr, originalErr))
}

func TestIndexError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "batch_size must be positive",
			expected: "[ERR_102_CONFIG_INVALID] batch_size must be positive",
		},
		{
			name:     "lock error",
			code:     ErrCodeIndexLocked,
			message:  "writer held",
			expected: "[ERR_207_INDEX_LOCKED] writer held",
		},
		{
			name:     "type mismatch",
			code:     ErrCodeTypeMismatch,
			message:  "wrong type",
			expected: "[ERR_407_TYPE_MISMATCH] wrong type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestIndexError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeTypeMismatch, "a", nil)
	err2 := New(ErrCodeTypeMismatch, "b", nil)
	err3 := New(ErrCodeWriteFailed, "c", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIndexError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeIndexLocked, CategoryIO},
		{ErrCodeWriteFailed, CategoryIO},
		{ErrCodeTypeMismatch, CategoryValidation},
		{ErrCodeUnknownDefinition, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeIndexFailed, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestIndexError_SeverityAndRetryable(t *testing.T) {
	tests := []struct {
		code          string
		wantSeverity  Severity
		wantRetryable bool
	}{
		{ErrCodeCorruptIndex, SeverityFatal, false},
		{ErrCodeDiskFull, SeverityFatal, false},
		{ErrCodeIndexLocked, SeverityWarning, true},
		{ErrCodeWriteFailed, SeverityError, false},
		{ErrCodeTypeMismatch, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestTypeMismatchError_DescribesEntity(t *testing.T) {
	err := TypeMismatchError("not-an-entity", "webpages")

	assert.Equal(t, ErrCodeTypeMismatch, err.Code)
	assert.Contains(t, err.Message, "not-an-entity")
	assert.Contains(t, err.Message, "webpages")
	assert.Equal(t, "string", err.Details["type"])
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	// Given: a retryable error wrapped twice
	err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", LockedError("/x")))

	// Then: helpers still find it
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
	assert.Equal(t, ErrCodeIndexLocked, GetCode(err))
	assert.Equal(t, CategoryIO, GetCategory(err))

	// And: plain errors have no code
	assert.Empty(t, GetCode(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
