package entity

import (
	"encoding/json"
	"fmt"
)

// Variant selects the shape the pipeline asks the model for: an epic/task
// tree or a flat list of story rows. Each variant binds its own JSON Schema,
// skeleton, and estimation walker.
type Variant string

const (
	VariantEpics Variant = "epics"
	VariantRows  Variant = "rows"
)

// DocumentParams is the typed form of a Document's generation parameters.
// The raw params blob is converted here once, at the boundary; the pipeline
// core never sees an untyped map.
type DocumentParams struct {
	RoundToHours float64 `json:"round_to_hours"`
	Variant      Variant `json:"variant"`
}

// ParseDocumentParams decodes and validates the params blob, applying
// defaults (round_to_hours 0.5, epics variant) for absent fields.
func ParseDocumentParams(raw json.RawMessage) (DocumentParams, error) {
	params := DocumentParams{
		RoundToHours: 0.5,
		Variant:      VariantEpics,
	}
	if len(raw) == 0 {
		return params, nil
	}

	var in struct {
		RoundToHours *float64 `json:"round_to_hours"`
		Variant      *string  `json:"variant"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return DocumentParams{}, fmt.Errorf("decode params: %w", err)
	}
	if in.RoundToHours != nil {
		if *in.RoundToHours <= 0 {
			return DocumentParams{}, fmt.Errorf("round_to_hours must be > 0, got %v", *in.RoundToHours)
		}
		params.RoundToHours = *in.RoundToHours
	}
	if in.Variant != nil {
		switch Variant(*in.Variant) {
		case VariantEpics, VariantRows:
			params.Variant = Variant(*in.Variant)
		default:
			return DocumentParams{}, fmt.Errorf("unknown variant %q", *in.Variant)
		}
	}
	return params, nil
}
