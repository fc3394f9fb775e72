package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeIndexLocked, "another import is running", nil).
		WithSuggestion("wait for it to finish")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: another import is running")
	assert.Contains(t, out, "Hint: wait for it to finish")
	assert.Contains(t, out, "Code: ERR_301_INDEX_LOCKED")
}

func TestFormatForCLI_PlainErrorBecomesInternal(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	err := New(ErrCodeJarUnreadable, "cannot read jar", errors.New("zip: not a valid zip file")).
		WithDetail("path", "widgets.jar")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ERR_205_JAR_UNREADABLE", got["code"])
	assert.Equal(t, "IO", got["category"])
	assert.Equal(t, "zip: not a valid zip file", got["cause"])
	assert.Equal(t, map[string]any{"path": "widgets.jar"}, got["details"])
}

func TestFormatForLog(t *testing.T) {
	err := New(ErrCodeSearchTimeout, "timed out", nil).WithDetail("pattern", "foo.Bar")

	fields := FormatForLog(err)

	assert.Equal(t, "ERR_302_SEARCH_TIMEOUT", fields["error_code"])
	assert.Equal(t, true, fields["retryable"])
	assert.Equal(t, "foo.Bar", fields["detail_pattern"])
	assert.Nil(t, FormatForLog(nil))
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
}
