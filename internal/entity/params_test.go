package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentParamsDefaults(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`{}`)} {
		params, err := ParseDocumentParams(raw)
		require.NoError(t, err)
		assert.Equal(t, 0.5, params.RoundToHours)
		assert.Equal(t, VariantEpics, params.Variant)
	}
}

func TestParseDocumentParamsExplicit(t *testing.T) {
	params, err := ParseDocumentParams(json.RawMessage(`{"round_to_hours": 1, "variant": "rows"}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, params.RoundToHours)
	assert.Equal(t, VariantRows, params.Variant)
}

func TestParseDocumentParamsPartial(t *testing.T) {
	params, err := ParseDocumentParams(json.RawMessage(`{"variant": "rows"}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, params.RoundToHours)
	assert.Equal(t, VariantRows, params.Variant)
}

func TestParseDocumentParamsRejects(t *testing.T) {
	cases := []string{
		`{"round_to_hours": 0}`,
		`{"round_to_hours": -1}`,
		`{"variant": "kanban"}`,
		`not json`,
	}
	for _, raw := range cases {
		_, err := ParseDocumentParams(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
