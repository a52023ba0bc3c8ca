package estimate

import (
	"math"

	"github.com/presalekit/estimator/internal/entity"
)

// RoundToStep rounds to the nearest multiple of step, ties half away from
// zero. A step <= 0 disables rounding.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}

// Expected is the PERT weighted average of a three-point estimate.
func Expected(optimistic, mostLikely, pessimistic float64) float64 {
	return (optimistic + 4*mostLikely + pessimistic) / 6
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LeafItems returns the leaf work items of a payload for the given variant:
// every task of every epic, or every row.
func LeafItems(payload map[string]any, variant entity.Variant) []map[string]any {
	var leaves []map[string]any
	switch variant {
	case entity.VariantRows:
		rows, _ := payload["rows"].([]any)
		for _, r := range rows {
			if m, ok := r.(map[string]any); ok {
				leaves = append(leaves, m)
			}
		}
	default:
		epics, _ := payload["epics"].([]any)
		for _, e := range epics {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			tasks, _ := em["tasks"].([]any)
			for _, t := range tasks {
				if m, ok := t.(map[string]any); ok {
					leaves = append(leaves, m)
				}
			}
		}
	}
	return leaves
}

// DetectVariant infers the payload shape from its top-level key.
func DetectVariant(payload map[string]any) entity.Variant {
	if _, ok := payload["rows"]; ok {
		return entity.VariantRows
	}
	return entity.VariantEpics
}

// PERTInputs reads the three-point inputs of one leaf. Missing or non-numeric
// values read as zero.
func PERTInputs(leaf map[string]any) (optimistic, mostLikely, pessimistic float64) {
	pert, _ := leaf["pert_hours"].(map[string]any)
	return numeric(pert["optimistic"]), numeric(pert["most_likely"]), numeric(pert["pessimistic"])
}

func numeric(v any) float64 {
	f, _ := v.(float64)
	return f
}

// Apply recomputes every leaf's expected hours from its three-point inputs —
// a model-supplied "expected" is never trusted — rounding each to the step,
// then writes totals.expected_hours as the step-rounded sum of the already
// rounded per-item values. The two-stage rounding is deliberate: rounding
// only the total produces different numbers on fractional boundaries.
func Apply(payload map[string]any, variant entity.Variant, step float64) float64 {
	total := 0.0
	for _, leaf := range LeafItems(payload, variant) {
		pert, ok := leaf["pert_hours"].(map[string]any)
		if !ok {
			pert = map[string]any{}
			leaf["pert_hours"] = pert
		}
		o, m, p := PERTInputs(leaf)
		expected := round2(RoundToStep(Expected(o, m, p), step))
		pert["expected"] = expected
		total += expected
	}
	total = round2(RoundToStep(total, step))
	payload["totals"] = map[string]any{"expected_hours": total}
	return total
}
