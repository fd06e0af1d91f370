package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound maps HTTP 404 responses.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized maps HTTP 401/403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Code, e.Body)
}
