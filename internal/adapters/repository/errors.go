package repository

import "errors"

// Sentinel kinds for preference store errors.
var (
	ErrNotFound   = errors.New("preference not found")
	ErrEmptyKey   = errors.New("empty preference key")
	ErrStoreClose = errors.New("preference store closed")
)
