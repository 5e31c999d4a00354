package crypto

import "errors"

// Errors returned by field, transform and generator operations. All of them
// are synchronous, caller-recoverable failures; no operation leaves shared
// state partially mutated.
var (
	// ErrMalformedField is returned when decoding a field element from
	// bytes that are too short or encode a value at or above the modulus.
	ErrMalformedField = errors.New("malformed field element encoding")

	// ErrDivisionByZero is returned when the multiplicative inverse of the
	// additive identity is requested.
	ErrDivisionByZero = errors.New("division by zero field element")

	// ErrUnsupportedLength is returned when a transform is requested for a
	// length that is not a power of two, or exceeds the order of the
	// field's power-of-two subgroup.
	ErrUnsupportedLength = errors.New("unsupported transform length")

	// ErrInputSizeMismatch is returned by vector operations when the two
	// input vectors have different lengths.
	ErrInputSizeMismatch = errors.New("input vector sizes do not match")

	// ErrRandomnessExhausted is returned when the deterministic generator
	// runs out of counter space. With a 64-bit block counter this is not
	// reachable in practice.
	ErrRandomnessExhausted = errors.New("deterministic randomness exhausted")
)
