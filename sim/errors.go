package sim

import "errors"

// Error kinds surfaced by the simulation kernel and the network models.
// Callers match them with errors.Is; every returned error wraps one of these
// with context such as the node name or the virtual time.
var (
	// ErrInvalidConfiguration reports a bad parameter detected before a run starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidDelay reports an attempt to schedule an event in the past.
	ErrInvalidDelay = errors.New("invalid delay")

	// ErrEmptyDataset reports a summary requested from an accumulator with no samples.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInsufficientSamples reports a summary that needs more samples than are present.
	ErrInsufficientSamples = errors.New("insufficient samples")
)
