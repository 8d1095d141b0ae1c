package types

import "errors"

// Failure classes shared across the pipeline. Components wrap these
// with %w so callers can classify with errors.Is without depending on
// backend-specific error types.
var (
	// ErrInvalidArgument rejects bad caller input (empty question,
	// non-positive k) before any work is attempted.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRetrievalBackend marks the conversation or vector store being
	// unavailable for a read. Fatal for the current call.
	ErrRetrievalBackend = errors.New("retrieval backend unavailable")

	// ErrIndexWrite marks a failed vector index write. The index keeps
	// its prior state.
	ErrIndexWrite = errors.New("index write failed")

	// ErrGeneration marks a generative model failure. Nothing is
	// persisted when it occurs.
	ErrGeneration = errors.New("generation failed")

	// ErrRateLimited and ErrTimeout distinguish collaborator failure
	// categories underneath ErrGeneration.
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("timed out")
)
