package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GeneratedResult is a versioned output artifact for a Document. Rows are
// immutable once written; corrections append the next version instead of
// updating in place. The highest version is the current one.
type GeneratedResult struct {
	ID              uuid.UUID       `json:"id"`
	DocumentID      uuid.UUID       `json:"document_id"`
	Version         int             `json:"version"`
	LLMModel        string          `json:"llm_model"`
	ResultJSON      json.RawMessage `json:"result_json"`
	RawLLMOutput    *string         `json:"raw_llm_output,omitempty"`
	ValidationError *string         `json:"validation_error,omitempty"`
	PromptText      string          `json:"prompt_text"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AttemptTrace is a write-once debug record for a single LLM call attempt
// within one Document's processing. The pipeline never reads these back.
type AttemptTrace struct {
	ID          uuid.UUID `json:"id"`
	DocumentID  uuid.UUID `json:"document_id"`
	Attempt     int       `json:"attempt"`
	Prompt      string    `json:"prompt"`
	RawOutput   *string   `json:"raw_output,omitempty"`
	ErrorCode   *string   `json:"error_code,omitempty"`
	ErrorDetail *string   `json:"error_detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
