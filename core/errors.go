package core

import "errors"

var (
	// ErrInvalidConfig marks programmer or configuration mistakes that must
	// be surfaced instead of being turned into an infinite loss.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch is returned when dataset arrays disagree in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
