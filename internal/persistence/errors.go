package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested key or record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorruptRecord is returned when a stored collection cannot be decoded.
	ErrCorruptRecord = errors.New("persistence: corrupt record")
)
