package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks configuration rejected eagerly at load time.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidInput marks a malformed search request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbedding marks a failed query-embedding call. Fatal per request:
	// no search is possible without a query vector.
	ErrEmbedding = errors.New("embedding failure")
	// ErrBackendUnavailable marks a degraded search backend. Contained per
	// source; never fails the overall request.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrCircuitOpen is the fast-fail specialization of ErrBackendUnavailable
	// observed at the port boundary when a breaker is open.
	ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrBackendUnavailable)
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
