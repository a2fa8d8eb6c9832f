package predict

import "errors"

// Sentinel errors returned at component boundaries so the orchestrator can
// tell "no data", "not enough history" and "model fault" apart instead of
// collapsing them into one opaque failure string.
var (
	// ErrNoData means the caller provided no records at all.
	ErrNoData = errors.New("no spending data provided")

	// ErrInsufficientHistory means fewer monthly rows than the sequence
	// length are available. For prediction this is a routing decision, not a
	// failure; for training it makes the run a no-op.
	ErrInsufficientHistory = errors.New("insufficient history for sequence model")

	// ErrModelUnavailable means no trained model state is loaded.
	ErrModelUnavailable = errors.New("sequence model unavailable")
)
