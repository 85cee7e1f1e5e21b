//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quote-browser/internal/adapters/clients"
	"github.com/jsamuelsen/quote-browser/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quote-browser/internal/adapters/http"
	"github.com/jsamuelsen/quote-browser/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/platform/config"
	"github.com/jsamuelsen/quote-browser/internal/ports"
)

// upstreamAuthors cycles over the fixture quotes, so every author owns a
// predictable share of the catalogue.
var upstreamAuthors = []string{"Albert Einstein", "Maya Angelou", "Steve Jobs"}

// fakeUpstream serves a dummyjson-shaped GET /quotes with count quotes.
// While failing is set it answers 503.
type fakeUpstream struct {
	*httptest.Server

	count   int
	failing atomic.Bool
	delay   atomic.Int64
	calls   atomic.Int64
}

func newFakeUpstream(count int) *fakeUpstream {
	u := &fakeUpstream{count: count}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))

	return u
}

func (u *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)

	if d := time.Duration(u.delay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}

	if r.URL.Path != "/quotes" {
		http.NotFound(w, r)

		return
	}

	if u.failing.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"maintenance"}`)

		return
	}

	type quote struct {
		ID     int    `json:"id"`
		Quote  string `json:"quote"`
		Author string `json:"author"`
	}

	quotes := make([]quote, u.count)
	for i := range quotes {
		quotes[i] = quote{
			ID:     i + 1,
			Quote:  fmt.Sprintf("Fixture quote number %d", i+1),
			Author: upstreamAuthors[i%len(upstreamAuthors)],
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"quotes": quotes,
		"total":  u.count,
		"skip":   0,
		"limit":  u.count,
	})
}

// stack is the service wired the way cmd/service wires it, in process.
type stack struct {
	*httptest.Server

	upstream *fakeUpstream
	screens  *app.Screens
}

func newStack(quoteCount int) (*stack, error) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	upstream := newFakeUpstream(quoteCount)

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     upstream.URL,
		ServiceName: "dummyjson",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   100,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Logger: logger,
	})
	if err != nil {
		upstream.Close()

		return nil, err
	}

	quoteClient := acl.NewQuoteClient(acl.QuoteClientConfig{Client: httpClient, Logger: logger})

	registry := ports.NewHealthRegistry(time.Second)
	if err := registry.Register(quoteClient); err != nil {
		upstream.Close()

		return nil, err
	}

	screens := app.NewScreens(app.ScreensConfig{
		Browser: app.BrowserConfig{
			Fetcher:      quoteClient,
			FetchTimeout: 2 * time.Second,
		},
		Logger:  logger,
		Metrics: app.NewMetrics(prometheus.NewRegistry()),
	})

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		ServiceName:   "quote-browser",
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("integration", "none", "now"), prometheus.NewRegistry()),
		QuoteHandler: handlers.NewQuoteHandler(app.NewQuoteService(app.QuoteServiceConfig{
			Fetcher: quoteClient,
			Logger:  logger,
		})),
		ScreenHandler: handlers.NewScreenHandler(screens, 50*time.Millisecond),
		Timeout:       5 * time.Second,
	})

	return &stack{
		Server:   httptest.NewServer(engine),
		upstream: upstream,
		screens:  screens,
	}, nil
}

func (s *stack) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = s.screens.CloseAll(ctx)
	s.Server.Close()
	s.upstream.Close()
}
