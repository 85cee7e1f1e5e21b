// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrUnavailable, ErrValidation, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-browser/internal/domain"
)

// QuoteFetcher retrieves the complete quote set from the remote source.
// There is no server-side filtering or pagination: one call returns every
// quote, in source order.
type QuoteFetcher interface {
	// FetchAllQuotes returns all quotes or an error describing why the fetch
	// failed. Implementations must respect context cancellation.
	FetchAllQuotes(ctx context.Context) ([]domain.Quote, error)
}
