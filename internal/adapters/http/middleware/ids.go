package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID carries the id of a whole business transaction
	// across services. It is propagated when present.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin.Context key of the request id.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin.Context key of the correlation id.
	ContextKeyCorrelationID = "correlation_id"
)

// RequestID returns middleware that takes the request id from the
// X-Request-ID header, or generates a UUID, and stores it in the gin
// context, the request context, the response headers and the request logger.
func RequestID() gin.HandlerFunc {
	return idMiddleware(HeaderRequestID, ContextKeyRequestID,
		ContextWithRequestID, logging.WithRequestID)
}

// CorrelationID is RequestID for the X-Correlation-ID header.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(HeaderCorrelationID, ContextKeyCorrelationID,
		ContextWithCorrelationID, logging.WithCorrelationID)
}

// GetRequestID returns the request id from c, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id from c, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

type contextEnricher func(ctx context.Context, id string) context.Context

func idMiddleware(header, key string, enrichers ...contextEnricher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(key, id)
		c.Header(header, id)

		ctx := c.Request.Context()
		for _, enrich := range enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
