package timescale

import "errors"

// Errors reported by this package. Callers test for them with errors.Is;
// the returned errors carry the offending input as context.
var (
	// ErrInvalidFormat reports text that does not match the ISO-8601
	// grammar accepted for the requested scale.
	ErrInvalidFormat = errors.New("not in acceptable ISO8601 format")

	// ErrOutOfRange reports a value outside the representable nanosecond
	// span, a year outside [1902, 2261], or a UTC<->TAI conversion before
	// the first leap table entry.
	ErrOutOfRange = errors.New("value out of range")

	// ErrScaleMismatch reports arithmetic between time points of
	// different scales.
	ErrScaleMismatch = errors.New("timescales differ")

	// ErrUnknownScale reports an unrecognised scale name or value.
	ErrUnknownScale = errors.New("unknown timescale")

	// ErrLeapTable reports malformed leap second data.
	ErrLeapTable = errors.New("malformed leap second table")
)
