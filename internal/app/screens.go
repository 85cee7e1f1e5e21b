package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-browser/internal/domain"
)

// DefaultMaxScreens bounds the number of open screens when ScreensConfig
// leaves MaxScreens unset.
const DefaultMaxScreens = 256

// ScreensConfig configures a Screens registry.
type ScreensConfig struct {
	// Browser is the template every opened screen's Browser is built from.
	Browser BrowserConfig

	MaxScreens int
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Screen is one open browser with its id.
type Screen struct {
	ID      string
	Browser *Browser
}

// Screens is a registry of open screens. Each screen owns one Browser whose
// state lives exactly as long as the screen is open.
type Screens struct {
	cfg     BrowserConfig
	max     int
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.RWMutex
	screens map[string]*Browser
	closed  bool
}

// NewScreens creates an empty registry.
func NewScreens(cfg ScreensConfig) *Screens {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxScreens := cfg.MaxScreens
	if maxScreens <= 0 {
		maxScreens = DefaultMaxScreens
	}

	browserCfg := cfg.Browser
	if browserCfg.Logger == nil {
		browserCfg.Logger = logger
	}

	if browserCfg.Metrics == nil {
		browserCfg.Metrics = cfg.Metrics
	}

	return &Screens{
		cfg:     browserCfg,
		max:     maxScreens,
		logger:  logger.With(slog.String("component", "app.Screens")),
		metrics: cfg.Metrics,
		screens: make(map[string]*Browser),
	}
}

// Open creates a screen and issues its initial fetch. It fails with an
// UnavailableError when the registry is full or shutting down.
func (s *Screens) Open(ctx context.Context) (Screen, View, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return Screen{}, View{}, domain.NewUnavailableError("screens", "shutting down")
	}

	if len(s.screens) >= s.max {
		s.mu.Unlock()

		return Screen{}, View{}, domain.NewUnavailableError("screens", "too many open screens")
	}

	id := uuid.NewString()
	cfg := s.cfg
	cfg.Logger = cfg.Logger.With(slog.String("screen_id", id))

	browser := NewBrowser(cfg)
	s.screens[id] = browser
	count := len(s.screens)

	s.mu.Unlock()

	s.metrics.screens(count)
	s.logger.InfoContext(ctx, "screen opened",
		slog.String("screen_id", id),
		slog.Int("open_screens", count),
	)

	view, err := browser.Start()
	if err != nil {
		return Screen{}, View{}, err
	}

	return Screen{ID: id, Browser: browser}, view, nil
}

// Get returns the browser of an open screen.
func (s *Screens) Get(id string) (*Browser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	browser, ok := s.screens[id]
	if !ok {
		return nil, domain.NewNotFoundError("screen", id)
	}

	return browser, nil
}

// Len returns the number of open screens.
func (s *Screens) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.screens)
}

// Close closes a screen and discards its state.
func (s *Screens) Close(ctx context.Context, id string) error {
	s.mu.Lock()

	browser, ok := s.screens[id]
	if ok {
		delete(s.screens, id)
	}

	count := len(s.screens)

	s.mu.Unlock()

	if !ok {
		return domain.NewNotFoundError("screen", id)
	}

	s.metrics.screens(count)
	s.logger.InfoContext(ctx, "screen closed",
		slog.String("screen_id", id),
		slog.Int("open_screens", count),
	)

	return browser.Close(ctx)
}

// CloseAll closes every open screen and refuses new ones. It is used during
// shutdown.
func (s *Screens) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	browsers := s.screens
	s.screens = make(map[string]*Browser)
	s.mu.Unlock()

	s.metrics.screens(0)

	var errs []error

	for id, browser := range browsers {
		if err := browser.Close(ctx); err != nil {
			errs = append(errs, err)
			s.logger.WarnContext(ctx, "screen did not close cleanly",
				slog.String("screen_id", id),
				slog.Any("error", err),
			)
		}
	}

	return errors.Join(errs...)
}
