package ml

import "errors"

var (
	// ErrInvalidTimestamp reports a dose or target time that does not parse
	// at minute resolution.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInsufficientData reports too few history records or training
	// examples to fit a model.
	ErrInsufficientData = errors.New("insufficient data")
)
