package protocol

import "errors"

var (
	// ErrValueOutOfRange is returned when a measurement exceeds the
	// declared capacity of its encoding: an integer that needs more bits
	// than the configured width, or a category index beyond the last
	// bucket.
	ErrValueOutOfRange = errors.New("measurement out of range for encoding")

	// ErrMalformedShare is returned when a share or proof has a shape
	// inconsistent with the declared encoding parameters. It covers wire
	// blobs that fail structural validation as well as vectors of the
	// wrong length. A malformed share is a caller bug or corruption, not
	// a protocol rejection.
	ErrMalformedShare = errors.New("share shape inconsistent with encoding parameters")
)
