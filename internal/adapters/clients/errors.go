// Package clients provides the instrumented HTTP client used by outbound
// adapters.
package clients

import "errors"

// Client errors are infrastructure failures. Adapters translate them into
// domain errors before they leave the adapter layer.
var (
	// ErrCircuitOpen is returned without contacting the downstream service
	// while the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is used.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
