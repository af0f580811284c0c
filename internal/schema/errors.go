package schema

import "errors"

var (
	// ErrEmptyInput rejects a send whose text is empty or whitespace-only.
	// No remote call is made and nothing is appended to the transcript.
	ErrEmptyInput = errors.New("empty input")

	// ErrTurnInProgress rejects a send while another turn is in flight.
	// There is no queuing: the new send is simply dropped.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrModelUnavailable wraps any transport, authentication, or
	// malformed-response failure from the remote model service.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrEngineUnavailable is returned by engine adapters whose backing
	// engine is not connected. Snapshot and dispatch degrade to no-ops.
	ErrEngineUnavailable = errors.New("engine unavailable")
)
