package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presalekit/estimator/internal/entity"
)

func TestSkeletonsAreValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(JSONSkeletonEpics), &v))
	assert.Contains(t, v, "epics")
	require.NoError(t, json.Unmarshal([]byte(JSONSkeletonRows), &v))
	assert.Contains(t, v, "rows")
}

func TestSkeletonForVariant(t *testing.T) {
	assert.Equal(t, JSONSkeletonEpics, SkeletonForVariant(entity.VariantEpics))
	assert.Equal(t, JSONSkeletonRows, SkeletonForVariant(entity.VariantRows))
}

func TestFileSection(t *testing.T) {
	s := FileSection("brief.pdf", "some text")
	assert.Equal(t, "----- FILE: brief.pdf -----\nsome text", s)
}

func TestLimitPromptText(t *testing.T) {
	assert.Equal(t, "abc", LimitPromptText("abc", 10))
	assert.Equal(t, "abcde", LimitPromptText("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", LimitPromptText("abcdefgh", 0))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("estimate the CRM", `{"type":"object"}`, JSONSkeletonRows)
	assert.True(t, strings.HasPrefix(p, "You are an assistant that must return ONLY valid JSON.\n"))
	assert.Contains(t, p, `{"type":"object"}`)
	assert.Contains(t, p, JSONSkeletonRows)
	assert.Contains(t, p, "User prompt: estimate the CRM")
	assert.True(t, strings.HasSuffix(p, "Return ONLY JSON with no extra text."))
}

func TestBuildRepairPrompt(t *testing.T) {
	p := BuildRepairPrompt(`{"type":"object"}`, JSONSkeletonRows, "duplicate id \"T1\"", `{"rows": broken`)
	assert.True(t, strings.HasPrefix(p, "Return ONLY corrected JSON that matches the schema EXACTLY. No other text.\n"))
	assert.Contains(t, p, `rejected because: duplicate id "T1"`)
	assert.Contains(t, p, `{"rows": broken`)
}

func TestBuildRepairPromptNoDefect(t *testing.T) {
	p := BuildRepairPrompt("{}", JSONSkeletonRows, "", "bad output")
	assert.NotContains(t, p, "rejected because")
	assert.Contains(t, p, "bad output")
}
