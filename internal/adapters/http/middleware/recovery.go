package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-browser/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
)

// Recovery returns middleware that turns a panic into a 500 error envelope
// and logs it with the stack. onPanic, when not nil, also receives the
// recovered value and stack. Apply it first in the chain.
func Recovery(onPanic func(recovered any, stack []byte)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if onPanic != nil {
				onPanic(r, stack)
			}

			ctx := c.Request.Context()
			traceID := dto.TraceID(ctx)

			logging.FromContext(ctx).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()

				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}
