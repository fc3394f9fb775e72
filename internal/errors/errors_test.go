package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassfindError_Unwrap_PreservesCause(t *testing.T) {
	// Given: an original error
	cause := errors.New("zip: not a valid zip file")

	// When: wrapping it
	err := New(ErrCodeJarUnreadable, "cannot read widgets.jar", cause)

	// Then: the cause is reachable through the chain
	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestClassfindError_Error(t *testing.T) {
	tests := []struct {
		code     string
		message  string
		expected string
	}{
		{ErrCodeConfigNotFound, "config file not found", "[ERR_101_CONFIG_NOT_FOUND] config file not found"},
		{ErrCodeIndexLocked, "index is locked", "[ERR_301_INDEX_LOCKED] index is locked"},
		{ErrCodeInvalidCoordinate, "bad coordinate", "[ERR_402_INVALID_COORDINATE] bad coordinate"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestClassfindError_Is_MatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeSearchTimeout, "", nil)

	err := fmt.Errorf("search: %w", New(ErrCodeSearchTimeout, "timed out after 5s", nil))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(ErrCodeSearchFailed, "", nil)))
}

func TestNew_DerivesCategorySeverityRetryable(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal, false},
		{ErrCodeIndexLocked, CategoryConcurrency, SeverityWarning, true},
		{ErrCodeSearchTimeout, CategoryConcurrency, SeverityWarning, true},
		{ErrCodeSearchCancelled, CategoryConcurrency, SeverityError, false},
		{ErrCodeInvalidPattern, CategoryValidation, SeverityError, false},
		{ErrCodeImportFailed, CategoryInternal, SeverityError, false},
		{"BAD", CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_UsesCauseMessage(t *testing.T) {
	err := Wrap(ErrCodeIndexOpenFailed, errors.New("database is locked"))
	assert.Equal(t, "database is locked", err.Message)
	assert.Equal(t, ErrCodeIndexOpenFailed, err.Code)
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := ValidationError("pattern too long", nil).
		WithDetail("length", "4096").
		WithSuggestion("shorten the pattern")

	assert.Equal(t, "4096", err.Details["length"])
	assert.Equal(t, "shorten the pattern", err.Suggestion)
	assert.Equal(t, ErrCodeInvalidInput, err.Code)
}

func TestHelpers_WalkTheChain(t *testing.T) {
	err := fmt.Errorf("import: %w", New(ErrCodeIndexLocked, "held by pid 42", nil))

	assert.Equal(t, ErrCodeIndexLocked, GetCode(err))
	assert.Equal(t, CategoryConcurrency, GetCategory(err))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))

	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "bad", nil)))
}

func TestHelpers_PlainError(t *testing.T) {
	err := errors.New("plain")

	assert.Equal(t, "", GetCode(err))
	assert.Equal(t, Category(""), GetCategory(err))
	assert.False(t, IsRetryable(err))
	assert.False(t, IsFatal(nil))

	_, ok := As(err)
	assert.False(t, ok)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, ErrCodeConfigInvalid, ConfigError("x", nil).Code)
	assert.Equal(t, ErrCodeInternal, InternalError("x", nil).Code)
}

func TestSearchError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), ErrCodeSearchTimeout},
		{"canceled", context.Canceled, ErrCodeSearchCancelled},
		{"other", errors.New("disk on fire"), ErrCodeSearchFailed},
		{"structured", New(ErrCodeIndexLocked, "locked", nil), ErrCodeIndexLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchError(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.want, GetCode(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, SearchError(nil))
}
