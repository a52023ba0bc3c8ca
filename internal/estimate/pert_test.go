package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presalekit/estimator/internal/entity"
)

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		want  float64
	}{
		{"zero step disables rounding", 3.37, 0, 3.37},
		{"negative step disables rounding", 3.37, -1, 3.37},
		{"already on step", 3.5, 0.5, 3.5},
		{"rounds down", 3.1, 0.5, 3.0},
		{"rounds up", 3.4, 0.5, 3.5},
		{"tie rounds away from zero", 3.25, 0.5, 3.5},
		{"whole hour step", 3.4, 1, 3.0},
		{"quarter hour step", 3.3, 0.25, 3.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundToStep(tt.value, tt.step), 1e-9)
		})
	}
}

func TestExpected(t *testing.T) {
	assert.InDelta(t, 4.0, Expected(2, 4, 6), 1e-9)
	assert.InDelta(t, 0.0, Expected(0, 0, 0), 1e-9)

	// Expected always lands between the optimistic and pessimistic bounds.
	e := Expected(1, 2, 10)
	assert.Greater(t, e, 1.0)
	assert.Less(t, e, 10.0)
}

func TestDetectVariant(t *testing.T) {
	assert.Equal(t, entity.VariantRows, DetectVariant(map[string]any{"rows": []any{}}))
	assert.Equal(t, entity.VariantEpics, DetectVariant(map[string]any{"epics": []any{}}))
	assert.Equal(t, entity.VariantEpics, DetectVariant(map[string]any{}))
}

func task(o, m, p float64) map[string]any {
	return map[string]any{
		"pert_hours": map[string]any{"optimistic": o, "most_likely": m, "pessimistic": p},
	}
}

func TestApplyEpics(t *testing.T) {
	payload := map[string]any{
		"epics": []any{
			map[string]any{"id": "E1", "tasks": []any{task(2, 4, 6), task(1, 2, 3)}},
			map[string]any{"id": "E2", "tasks": []any{task(0.5, 1, 1.5)}},
		},
	}

	total := Apply(payload, entity.VariantEpics, 0.5)
	assert.InDelta(t, 7.0, total, 1e-9)

	totals, ok := payload["totals"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 7.0, totals["expected_hours"].(float64), 1e-9)

	leaves := LeafItems(payload, entity.VariantEpics)
	require.Len(t, leaves, 3)
	for _, leaf := range leaves {
		pert := leaf["pert_hours"].(map[string]any)
		assert.Contains(t, pert, "expected")
	}
}

func TestApplyRows(t *testing.T) {
	payload := map[string]any{
		"rows": []any{task(2, 4, 6), task(4, 8, 12)},
	}
	total := Apply(payload, entity.VariantRows, 0.5)
	assert.InDelta(t, 12.0, total, 1e-9)
}

func TestApplyIgnoresModelExpected(t *testing.T) {
	leaf := task(2, 4, 6)
	leaf["pert_hours"].(map[string]any)["expected"] = 999.0

	payload := map[string]any{"rows": []any{leaf}}
	Apply(payload, entity.VariantRows, 0.5)

	assert.InDelta(t, 4.0, leaf["pert_hours"].(map[string]any)["expected"].(float64), 1e-9)
}

func TestApplyRoundsItemsBeforeTotal(t *testing.T) {
	// Each raw expectation is 0.75, rounding per item to 0.5 gives 1.0 each,
	// so the total is 2.0. Rounding only the raw sum (1.5) would give 1.5.
	payload := map[string]any{
		"rows": []any{task(0.75, 0.75, 0.75), task(0.75, 0.75, 0.75)},
	}
	total := Apply(payload, entity.VariantRows, 0.5)
	assert.InDelta(t, 2.0, total, 1e-9)

	rawSumRounded := RoundToStep(0.75+0.75, 0.5)
	assert.NotEqual(t, rawSumRounded, total)
}

func TestApplyMissingPERTReadsZero(t *testing.T) {
	payload := map[string]any{
		"rows": []any{map[string]any{"id": "R1", "title": "no inputs"}},
	}
	total := Apply(payload, entity.VariantRows, 0.5)
	assert.InDelta(t, 0.0, total, 1e-9)

	pert, ok := payload["rows"].([]any)[0].(map[string]any)["pert_hours"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.0, pert["expected"].(float64), 1e-9)
}
