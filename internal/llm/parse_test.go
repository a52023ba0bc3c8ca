package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presalekit/estimator/constants"
)

func TestExtractJSONObjectPlain(t *testing.T) {
	obj, err := ExtractJSONObject(`{"epics": []}`)
	require.NoError(t, err)
	assert.Contains(t, obj, "epics")
}

func TestExtractJSONObjectSurroundingProse(t *testing.T) {
	text := "Sure! Here is the breakdown you asked for:\n```json\n{\"rows\": [{\"id\": \"R1\"}]}\n```\nLet me know if you need changes."
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	rows, ok := obj["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestExtractJSONObjectLeadingWhitespace(t *testing.T) {
	obj, err := ExtractJSONObject("\n\n   {\"rows\": []}   \n")
	require.NoError(t, err)
	assert.Contains(t, obj, "rows")
}

func TestExtractJSONObjectNoBraces(t *testing.T) {
	_, err := ExtractJSONObject("I cannot help with that.")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.CodeNoJSONFound, perr.Code)
}

func TestExtractJSONObjectMalformedSpan(t *testing.T) {
	_, err := ExtractJSONObject(`here you go {"rows": [}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.CodeInvalidJSON, perr.Code)
	assert.Error(t, perr.Unwrap())
}

func TestExtractJSONObjectNotAnObject(t *testing.T) {
	// A bare array has no '{' to anchor on.
	_, err := ExtractJSONObject(`[1, 2, 3]`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.CodeNoJSONFound, perr.Code)
}
