package engine

import (
	"errors"
	"fmt"

	"github.com/himakhaitan/redislens/gateway"
)

var (
	// ErrNotConnected is returned when no gateway session has been established
	ErrNotConnected = errors.New("not connected to a server")

	// ErrNotFound is returned when a key does not exist
	ErrNotFound = gateway.ErrNotFound

	// ErrGateway wraps transport and protocol failures
	ErrGateway = errors.New("gateway error")

	// ErrValidation is returned for input rejected before any gateway call
	ErrValidation = errors.New("invalid input")

	// ErrPartialFailure is returned when a bulk delete removed only some keys
	ErrPartialFailure = errors.New("partial failure")

	// ErrSuperseded is returned for a response that a newer request replaced.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrMutationInFlight rejects a second mutation of a key that is still being mutated.
	ErrMutationInFlight = errors.New("mutation already in flight")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// gatewayError classifies err from a gateway call made for op.
func gatewayError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, gateway.ErrEmptyCommand), errors.Is(err, gateway.ErrNoKeys), errors.Is(err, gateway.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrGateway, op, err)
}
