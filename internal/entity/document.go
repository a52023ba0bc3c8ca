package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/presalekit/estimator/constants"
)

// Document is a queued request to generate a structured estimate from the
// files attached to its presale. Created by the API layer; mutated only by
// the pipeline; never deleted by it.
type Document struct {
	ID        uuid.UUID                `json:"id"`
	PresaleID uuid.UUID                `json:"presale_id"`
	Prompt    string                   `json:"prompt"`
	Params    json.RawMessage          `json:"params"`
	Status    constants.DocumentStatus `json:"status"`
	Progress  int                      `json:"progress"`
	Message   string                   `json:"message"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// PresaleFile represents an uploaded source file for data transfer between layers.
type PresaleFile struct {
	ID          uuid.UUID `json:"id"`
	PresaleID   uuid.UUID `json:"presale_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}
