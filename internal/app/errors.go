package service

import "errors"

// Sentinel kinds for session errors.
var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrInvalidSchedule = errors.New("invalid refresh schedule")
	ErrSuperseded      = errors.New("superseded by a newer request")
)
