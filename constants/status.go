package constants

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusQueued  DocumentStatus = "queued"  // waiting for a worker to claim it
	StatusRunning DocumentStatus = "running" // claimed and in progress
	StatusDone    DocumentStatus = "done"    // terminal success
	StatusError   DocumentStatus = "error"   // terminal failure
)

// Progress checkpoints written alongside status transitions.
const (
	ProgressClaimed    = 10
	ProgressCallingLLM = 30
	ProgressSaving     = 90
	ProgressTerminal   = 100
)

// Stage messages surfaced to status queries.
const (
	MessageExtractingText = "extracting_text"
	MessageCallingLLM     = "calling_llm"
	MessageSavingResult   = "saving_result"
	MessageOK             = "ok"
)
