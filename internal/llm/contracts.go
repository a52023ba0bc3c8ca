package llm

import (
	"context"
	"fmt"

	"github.com/presalekit/estimator/constants"
)

// Generator is the gateway contract the pipeline depends on.
type Generator interface {
	// Generate sends a prompt and returns the model's raw text reply. It
	// fails only with *TransportError; malformed content is the caller's
	// problem, not the gateway's.
	Generate(ctx context.Context, prompt string) (string, error)
	// WaitReady blocks until the backing service reports healthy, polling at
	// a fixed interval up to a bounded wait. Called once per job before the
	// first generation attempt.
	WaitReady(ctx context.Context) error
	// Health reports liveness without raising; used by operator checks.
	Health(ctx context.Context) error
}

// TransportError is an infrastructure failure (unreachable, timeout, bad
// status after retries) as opposed to a semantic rejection of model output.
// The repair loop never retries these.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s status %d", constants.CodeHTTPError, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", constants.CodeHTTPError, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
