package domain

import "errors"

var (
	// ErrInsufficientData marks a series too short to fit. It degrades to
	// Missing and is never fatal.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelFit marks a numerical fit failure. It degrades to Missing and
	// the batch continues.
	ErrModelFit = errors.New("model fit failed")

	// ErrStructural marks malformed input. It aborts the whole run.
	ErrStructural = errors.New("structurally invalid input")
)

// ErrNotFound marks a state absent from the stored forecasts.
var ErrNotFound = errors.New("not found")
