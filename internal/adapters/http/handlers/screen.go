package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-browser/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
)

// EventsRoute is the registered path of the view stream. Request timeouts
// must skip it.
const EventsRoute = "/api/v1/screens/:id/events"

const defaultKeepAlive = 15 * time.Second

// ScreenHandler exposes browser screens: open one, send it intents, read or
// stream its view, close it.
type ScreenHandler struct {
	screens   *app.Screens
	keepAlive time.Duration
}

// NewScreenHandler creates a ScreenHandler. keepAlive is the interval of
// comment frames on idle event streams; zero uses 15s.
func NewScreenHandler(screens *app.Screens, keepAlive time.Duration) *ScreenHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	return &ScreenHandler{screens: screens, keepAlive: keepAlive}
}

// Open handles POST /api/v1/screens. The initial fetch is issued before
// the response, so the returned view is loading.
//
// @Summary Open a browser screen
// @Tags screens
// @Produce json
// @Success 201 {object} dto.ScreenResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/screens [post]
func (h *ScreenHandler) Open(c *gin.Context) {
	screen, view, err := h.screens.Open(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.Header("Location", "/api/v1/screens/"+screen.ID)
	c.JSON(http.StatusCreated, dto.ScreenResponse{ID: screen.ID, View: dto.FromView(view)})
}

// Get handles GET /api/v1/screens/:id.
func (h *ScreenHandler) Get(c *gin.Context) {
	_, browser, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.FromView(browser.Snapshot()))
}

// Dispatch handles POST /api/v1/screens/:id/intents. A rejected intent
// answers 409 and leaves the view unchanged.
//
// @Summary Send an intent to a screen
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param intent body dto.IntentRequest true "Intent"
// @Success 200 {object} dto.ViewResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/screens/{id}/intents [post]
func (h *ScreenHandler) Dispatch(c *gin.Context) {
	_, browser, ok := h.lookup(c)
	if !ok {
		return
	}

	var req dto.IntentRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)

		return
	}

	intent, err := app.ParseIntent(req.Type, req.Text, req.Page)
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	view, err := browser.Dispatch(intent)
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, dto.FromView(view))
}

// Events handles GET /api/v1/screens/:id/events, a Server-Sent Events
// stream. Each "view" event carries the latest view; intermediate views may
// be skipped. A "closed" event ends the stream when the screen closes.
func (h *ScreenHandler) Events(c *gin.Context) {
	id, browser, ok := h.lookup(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	views, unsubscribe := browser.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	logger.Debug("event stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case view, open := <-views:
			if !open {
				c.SSEvent("closed", gin.H{"id": id})

				return false
			}

			c.SSEvent("view", dto.FromView(view))

			return true

		case <-ticker.C:
			_, err := io.WriteString(w, ": keepalive\n\n")

			return err == nil

		case <-ctx.Done():
			return false
		}
	})

	logger.Debug("event stream closed", slog.Any("reason", ctx.Err()))
}

// Close handles DELETE /api/v1/screens/:id.
func (h *ScreenHandler) Close(c *gin.Context) {
	id, _, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.screens.Close(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// lookup resolves the :id parameter to an open browser and tags the request
// logger with the screen id. It writes the error response when it fails.
func (h *ScreenHandler) lookup(c *gin.Context) (string, *app.Browser, bool) {
	var uri dto.ScreenURI
	if err := dto.BindURIAndValidate(c, &uri); err != nil {
		dto.HandleBindError(c, err)

		return "", nil, false
	}

	browser, err := h.screens.Get(uri.ID)
	if err != nil {
		dto.HandleError(c, err)

		return "", nil, false
	}

	c.Request = c.Request.WithContext(logging.WithScreenID(c.Request.Context(), uri.ID))

	return uri.ID, browser, true
}

// RegisterRoutes registers the screen routes on rg.
func (h *ScreenHandler) RegisterRoutes(rg *gin.RouterGroup) {
	screens := rg.Group("/screens")
	screens.POST("", h.Open)
	screens.GET("/:id", h.Get)
	screens.POST("/:id/intents", h.Dispatch)
	screens.GET("/:id/events", h.Events)
	screens.DELETE("/:id", h.Close)
}
