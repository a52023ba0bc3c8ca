package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presalekit/estimator/internal/entity"
)

func leafItem(id, title, role, typ string, o, m, p float64) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       title,
		"description": "does something useful for the project",
		"role":        role,
		"type":        typ,
		"pert_hours":  map[string]any{"optimistic": o, "most_likely": m, "pessimistic": p},
	}
}

// goodPayload passes every predicate of the default policy: 3 functional,
// 2 non_functional, distinct ids and estimates, real titles.
func goodPayload() map[string]any {
	rows := []any{
		leafItem("T1", "Implement login endpoint", "backend", "functional", 2, 4, 6),
		leafItem("T2", "Build user profile page", "frontend", "functional", 3, 5, 8),
		leafItem("T3", "Wire payment provider", "backend", "functional", 4, 8, 12),
		leafItem("T4", "Load test checkout flow", "qa", "non_functional", 2, 3, 5),
		leafItem("T5", "Harden API rate limits", "backend", "non_functional", 1, 2, 4),
	}
	return map[string]any{"rows": rows}
}

func TestGatePassesGoodPayload(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	assert.NoError(t, gate.Check(goodPayload(), entity.VariantRows, ""))
}

func TestGateRejectsEmptyPayload(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	err := gate.Check(map[string]any{"rows": []any{}}, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "no work items")
}

func TestGatePlaceholderIDs(t *testing.T) {
	gate := NewGate(DefaultPolicy())

	payload := goodPayload()
	payload["rows"].([]any)[0].(map[string]any)["id"] = "string"
	err := gate.Check(payload, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "placeholder or empty id")

	payload = goodPayload()
	payload["rows"].([]any)[1].(map[string]any)["id"] = "T1"
	err = gate.Check(payload, entity.VariantRows, "")
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "duplicate id")
}

func TestGateEpicPlaceholderID(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := map[string]any{
		"epics": []any{
			map[string]any{
				"id":    "tbd",
				"title": "Core platform",
				"tasks": goodPayload()["rows"],
			},
		},
	}
	err := gate.Check(payload, entity.VariantEpics, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "epic id")
}

func TestGateTitleQuality(t *testing.T) {
	gate := NewGate(DefaultPolicy())

	tests := []struct {
		title  string
		reason string
	}{
		{"todo", "placeholder title"},
		{"Login", "too short"},
		{"Introduction", "document heading"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			payload := goodPayload()
			payload["rows"].([]any)[2].(map[string]any)["title"] = tt.title
			err := gate.Check(payload, entity.VariantRows, "")
			var gerr *GateError
			require.ErrorAs(t, err, &gerr)
			assert.Contains(t, gerr.Reason, tt.reason)
		})
	}
}

func TestGateTypeCounts(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := goodPayload()
	// Flip one functional item away, dropping below the minimum of three.
	payload["rows"].([]any)[0].(map[string]any)["type"] = "non_functional"
	err := gate.Check(payload, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "functional")
}

func TestGateFieldPopulation(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := goodPayload()
	row := payload["rows"].([]any)[3].(map[string]any)
	row["description"] = ""
	row["role"] = "  "
	err := gate.Check(payload, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "required fields populated")
}

func TestGateUniformEstimates(t *testing.T) {
	gate := NewGate(DefaultPolicy())

	rows := []any{}
	for i := 0; i < 5; i++ {
		typ := "functional"
		if i >= 3 {
			typ = "non_functional"
		}
		rows = append(rows, leafItem(
			fmt.Sprintf("T%d", i+1),
			fmt.Sprintf("Deliver feature number %d", i+1),
			"backend", typ, 2, 4, 8))
	}
	payload := map[string]any{"rows": rows}
	err := gate.Check(payload, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "identical estimates")

	// A single differing triple clears it.
	rows[4].(map[string]any)["pert_hours"] = map[string]any{
		"optimistic": 1.0, "most_likely": 3.0, "pessimistic": 9.0,
	}
	assert.NoError(t, gate.Check(payload, entity.VariantRows, ""))
}

func TestGateUniformEstimatesSingleLeaf(t *testing.T) {
	// One leaf alone can't be "uniform", but it still has to satisfy the type
	// minimums, so build a policy without them.
	policy := DefaultPolicy()
	policy.MinTypeCounts = nil
	gate := NewGate(policy)
	payload := map[string]any{"rows": []any{
		leafItem("T1", "Ship the thing", "backend", "functional", 2, 4, 8),
	}}
	assert.NoError(t, gate.Check(payload, entity.VariantRows, ""))
}

func TestGateRoleCoverage(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := goodPayload()

	// Source demands deployment work but no devops items exist.
	err := gate.Check(payload, entity.VariantRows, "The system must run in Kubernetes with automated deployment.")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "devops")

	// Roles already present are never demanded again.
	assert.NoError(t, gate.Check(payload, entity.VariantRows, "Extensive testing is required."))
}

func TestGateFirstFailureWins(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := goodPayload()
	// Seed both an id defect and a title defect; the id check runs first.
	row := payload["rows"].([]any)[0].(map[string]any)
	row["id"] = ""
	row["title"] = "x"
	err := gate.Check(payload, entity.VariantRows, "")
	var gerr *GateError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "id")
	assert.NotContains(t, gerr.Reason, "title")
}

func TestNormalizeRoles(t *testing.T) {
	gate := NewGate(DefaultPolicy())
	payload := map[string]any{"rows": []any{
		map[string]any{"role": "  QA Engineer "},
		map[string]any{"role": "Backend"},
		map[string]any{"role": "sre"},
		map[string]any{"role": "unknown specialist"},
	}}
	gate.NormalizeRoles(payload, entity.VariantRows)

	rows := payload["rows"].([]any)
	assert.Equal(t, "qa", rows[0].(map[string]any)["role"])
	assert.Equal(t, "backend", rows[1].(map[string]any)["role"])
	assert.Equal(t, "devops", rows[2].(map[string]any)["role"])
	assert.Equal(t, "unknown specialist", rows[3].(map[string]any)["role"])
}

func TestGateErrorMessage(t *testing.T) {
	err := &GateError{Reason: "duplicate id \"T1\""}
	assert.Equal(t, `llm_quality_gate_failed: duplicate id "T1"`, err.Error())
}
