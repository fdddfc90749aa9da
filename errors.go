package main

import "errors"

// Sentinel errors returned by the graph builder. Callers branch on them with
// errors.Is; context is attached with %w where they are raised.
var (
	// ErrDegenerateVector is returned when a direction of zero length has to
	// be normalized, i.e. two distinct nodes share a position.
	ErrDegenerateVector = errors.New("degenerate vector: zero length direction")

	// ErrInvalidConfiguration covers bad builder settings and unusable node sets.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
