package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/domain"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
)

// MapDomainError maps an error to an HTTP status and error envelope.
// Unknown errors become a 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	code := errorCode(err)
	message := err.Error()

	switch code {
	case ErrorCodeInternal:
		message = "an internal error occurred"
	case ErrorCodeTimeout:
		message = "request timeout exceeded"
	}

	resp := NewErrorResponse(code, message)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
	}

	return HTTPStatusFromCode(code), resp
}

// errorCode picks the code for err. Fetch failures are checked before
// unavailability because a FetchError also unwraps to its cause.
func errorCode(err error) string {
	switch {
	case domain.IsNotFound(err):
		return ErrorCodeNotFound
	case domain.IsValidation(err):
		return ErrorCodeValidation
	case domain.IsIntentRejected(err), errors.Is(err, app.ErrBrowserClosed):
		return ErrorCodeIntentRejected
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout
	case domain.IsFetch(err):
		return ErrorCodeFetchFailed
	case domain.IsUnavailable(err):
		return ErrorCodeUnavailable
	default:
		return ErrorCodeInternal
	}
}

// HandleError writes the error envelope for err, with the trace id.
// Internal errors are logged with their full message.
func HandleError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status, resp := MapDomainError(err)
	resp.WithTraceID(TraceID(ctx))

	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("internal error",
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// HandleBindError writes a 400 for a binding or validation failure,
// with field details when the validator produced them.
func HandleBindError(c *gin.Context, err error) {
	var resp *ErrorResponse

	if details := ValidationErrors(err); len(details) > 0 {
		resp = NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", details)
	} else {
		resp = NewErrorResponse(ErrorCodeBadRequest, err.Error())
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, resp.WithTraceID(TraceID(c.Request.Context())))
}
