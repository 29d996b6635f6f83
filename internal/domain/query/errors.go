package query

import "errors"

var (
	// ErrUnknownSortKey is returned when a sort key is not valid for the row kind.
	ErrUnknownSortKey = errors.New("unknown sort key")
	// ErrUnknownVersion is returned when a version selection is neither a token nor a known version.
	ErrUnknownVersion = errors.New("unknown version selection")
)
