// Package acl is the anti-corruption layer between the quote browser and the
// remote quote catalogue.
//
// External DTOs never leave this package. Every adapter:
//
//  1. fetches through [BaseAdapter], which maps transport and HTTP failures
//     to domain errors with [MapHTTPError];
//  2. decodes the body with [DecodeResponse];
//  3. validates and converts each item with a [Translator], usually through
//     [TranslateSlice].
//
// Error mapping:
//   - 404 becomes [domain.ErrNotFound]
//   - 400 and 422 become [domain.ErrValidation]
//   - 401, 403, 429, 5xx and transport failures become [domain.ErrUnavailable]
//
// Client-level errors ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded])
// also become [domain.ErrUnavailable]. A canceled context is returned as is so
// callers can tell an abandoned fetch from a failed one.
package acl
