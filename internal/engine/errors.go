package engine

import "errors"

var (
	// ErrNotFound is returned when a query resolves to no catalog title above the match cutoff.
	ErrNotFound = errors.New("movie not found")

	// ErrInvalidConfiguration is returned for out-of-range tuning values such as
	// alpha outside [0,1] or a non-positive window size.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrItemOutOfRange is returned when a catalog index does not exist.
	ErrItemOutOfRange = errors.New("item index out of range")

	// ErrEmptyCatalog is returned when no item survives catalog preparation.
	ErrEmptyCatalog = errors.New("catalog is empty")
)
