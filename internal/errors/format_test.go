package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with a suggestion
	err := CategoryNotConfigured("Resources")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: message, hint and code are present
	assert.Contains(t, result, "Error: category Resources was not configured")
	assert.Contains(t, result, "Hint: add an extractor")
	assert.Contains(t, result, "Code: ERR_401_CATEGORY_NOT_CONFIGURED")
}

func TestFormatForCLI_StandardErrorIsWrapped(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"))

	assert.Contains(t, result, "something went wrong")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	err := SourceUnavailable("x.jar", errors.New("not found"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeSourceUnavailable, got["code"])
	assert.Equal(t, "IO", got["category"])
	assert.Equal(t, true, got["recoverable"])
	assert.Equal(t, "not found", got["cause"])
}

func TestLogAttrs(t *testing.T) {
	assert.Nil(t, LogAttrs(nil))

	plain := LogAttrs(errors.New("boom"))
	assert.Len(t, plain, 1)

	attrs := LogAttrs(ExtractionFailed("Types", "a/B.class", errors.New("bad magic")))
	// error_code, error, cause, extractor, path
	assert.Len(t, attrs, 5)
}
