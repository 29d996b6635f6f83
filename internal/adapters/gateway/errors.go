package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNonJSON is returned when a successful response does not carry a JSON body.
	ErrNonJSON = errors.New("non-JSON response")
	// ErrTransport wraps network failures.
	ErrTransport = errors.New("transport failure")
)

// APIError is a non-2xx provider response.
type APIError struct {
	Status      int
	StatusText  string
	Code        string
	Message     string
	Maintenance bool
}

// Error renders "[code] message (HTTP status)", dropping the prefix when there
// is no code and using the status text when there is no message.
func (e *APIError) Error() string {
	prefix := ""
	if e.Code != "" {
		prefix = "[" + e.Code + "] "
	}
	msg := e.Message
	if msg == "" {
		msg = e.StatusText
	}
	return fmt.Sprintf("%s%s (HTTP %d)", prefix, msg, e.Status)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

type nonJSONError struct {
	url string
}

func (e *nonJSONError) Error() string { return "Non-JSON response from " + e.url }

func (e *nonJSONError) Unwrap() error { return ErrNonJSON }
