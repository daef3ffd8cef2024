package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key does not exist
	ErrNotFound = errors.New("key not found")

	// ErrNoKeys is returned by a bulk delete with an empty key list
	ErrNoKeys = errors.New("no keys provided")

	// ErrEmptyCommand is returned when Execute is called without a command name
	ErrEmptyCommand = errors.New("empty command")

	// ErrUnsupported is returned for commands that would desync pooled connections.
	ErrUnsupported = errors.New("command not supported")
)

// RemoteError is a non-success reply from the HTTP API.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return e.Detail
}
