package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-browser/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-browser/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-browser/internal/platform/telemetry"
)

// DefaultRequestTimeout applies when RouterConfig.Timeout is zero.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig holds the handlers and settings wired by SetupRouter. Nil
// handlers leave their routes unregistered.
type RouterConfig struct {
	// ServiceName names the server spans.
	ServiceName string

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler
	ScreenHandler *handlers.ScreenHandler

	// Timeout is the deadline of /api/v1 requests. Event streams are exempt.
	Timeout time.Duration
}

// SetupRouter registers middleware and routes on engine.
// Middleware order:
//  1. Recovery
//  2. Request ID and correlation ID
//  3. OpenTelemetry tracing, then metrics and the X-Trace-ID header
//  4. Logging (skips /-/)
//  5. Timeout on /api/v1, except the event stream
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(nil),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Timeout(timeout, handlers.EventsRoute))

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(apiV1)
	}

	if cfg.ScreenHandler != nil {
		cfg.ScreenHandler.RegisterRoutes(apiV1)
	}
}
