// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/CLI output by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrFetch indicates the quote fetch collaborator failed.
	ErrFetch = errors.New("fetch failed")

	// ErrIntentRejected indicates an intent was applied outside its precondition.
	// State is left untouched when this is returned.
	ErrIntentRejected = errors.New("intent rejected")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// FetchError is the single failure kind surfaced to quote observers.
// Every failure of the fetch collaborator collapses into one, carrying the
// collaborator's message verbatim.
type FetchError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *FetchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrFetch}
	}

	return []error{ErrFetch, e.Cause}
}

// NewFetchError wraps a collaborator failure. A nil cause or one with an empty
// message yields a generic message so observers never see an empty error.
func NewFetchError(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	if msg == "" {
		msg = "an unknown error occurred"
	}

	return &FetchError{Message: msg, Cause: cause}
}

// IntentError reports an intent that was rejected by its precondition.
type IntentError struct {
	Intent string
	Reason string
}

// Error implements the error interface.
func (e *IntentError) Error() string {
	return fmt.Sprintf("intent %s rejected: %s", e.Intent, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *IntentError) Unwrap() error {
	return ErrIntentRejected
}

// NewIntentError creates an intent rejection error.
func NewIntentError(intent, reason string) error {
	return &IntentError{Intent: intent, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsFetch checks if an error is a fetch error.
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsIntentRejected checks if an error is an intent rejection.
func IsIntentRejected(err error) bool {
	return errors.Is(err, ErrIntentRejected)
}
