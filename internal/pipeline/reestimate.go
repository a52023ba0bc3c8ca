package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/presalekit/estimator/internal/entity"
	"github.com/presalekit/estimator/internal/estimate"
)

// Reestimate re-runs the Estimation Engine over a document's current result
// payload with new parameters and appends it as the next version. Existing
// versions are never touched; the old document is not resurrected — its
// status stays whatever it was.
func (o *Orchestrator) Reestimate(ctx context.Context, documentID uuid.UUID, params entity.DocumentParams) (int, error) {
	current, err := o.results.Latest(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load current result: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(current.ResultJSON, &payload); err != nil {
		return 0, fmt.Errorf("decode result payload: %w", err)
	}
	if _, failed := payload["error"]; failed {
		return 0, fmt.Errorf("current result of document %s is a failed generation", documentID)
	}

	variant := estimate.DetectVariant(payload)
	total := estimate.Apply(payload, variant, params.RoundToHours)

	updated, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode result payload: %w", err)
	}
	version, err := o.results.AppendNextVersion(ctx, documentID, current.LLMModel, updated, current.PromptText)
	if err != nil {
		return 0, fmt.Errorf("append result version: %w", err)
	}

	o.log.Info("pipeline.reestimated",
		"document_id", documentID,
		"version", version,
		"round_to_hours", params.RoundToHours,
		"total_expected_hours", total,
	)
	return version, nil
}
