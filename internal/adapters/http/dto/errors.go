// Package dto holds the request and response shapes of the HTTP API.
package dto

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// ErrorResponse is the error envelope of every non-2xx response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is machine readable, e.g. "NOT_FOUND".
	Code string `json:"code"`

	Message string `json:"message"`

	// Details holds field-level messages for validation errors.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound       = "NOT_FOUND"
	ErrorCodeValidation     = "VALIDATION_ERROR"
	ErrorCodeIntentRejected = "INTENT_REJECTED"
	ErrorCodeFetchFailed    = "FETCH_FAILED"
	ErrorCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal       = "INTERNAL_ERROR"
	ErrorCodeTimeout        = "TIMEOUT"
	ErrorCodeBadRequest     = "BAD_REQUEST"
)

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error envelope with field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID sets the trace id and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID

	return e
}

// HTTPStatusFromCode maps an error code to its HTTP status.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeIntentRejected:
		return http.StatusConflict
	case ErrorCodeFetchFailed:
		return http.StatusBadGateway
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// TraceID returns the OpenTelemetry trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
