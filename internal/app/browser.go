// Package app contains the application layer: the browser state machine that
// owns a screen's query state, the screen registry, and the stateless quote
// search use case. It coordinates the domain query engine and the quote
// fetcher port; it knows nothing about HTTP or terminals.
package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-browser/internal/domain"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
	"github.com/jsamuelsen/quote-browser/internal/ports"
)

// ErrBrowserClosed is returned by Dispatch after Close.
var ErrBrowserClosed = errors.New("browser closed")

// BrowserConfig holds the dependencies and tuning of a Browser.
type BrowserConfig struct {
	Fetcher ports.QuoteFetcher
	Logger  *slog.Logger
	Metrics *Metrics

	// PageSize defaults to domain.DefaultPageSize when not positive.
	PageSize int

	// WindowRadius defaults to domain.DefaultWindowRadius when negative.
	WindowRadius int

	// FetchTimeout bounds a single fetch. Zero means no timeout.
	FetchTimeout time.Duration
}

// Browser is the state holder of one quote screen. It applies intents one at
// a time, recomputes derived state after every applied intent, and publishes
// the resulting View to subscribers.
//
// Fetches run in background goroutines and report back through Dispatch with
// the request id they were issued under. Only the latest request id is
// accepted; older completions are discarded.
type Browser struct {
	fetcher      ports.QuoteFetcher
	logger       *slog.Logger
	metrics      *Metrics
	pageSize     int
	radius       int
	fetchTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	fetches errgroup.Group

	mu          sync.Mutex
	state       queryState
	view        View
	requestID   uint64
	cancelFetch context.CancelFunc
	subscribers map[uint64]chan View
	nextSub     uint64
	closed      bool
}

// NewBrowser creates a Browser in the Loading state. No fetch is issued
// until Start or a FetchStarted intent.
func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.Fetcher == nil {
		panic("app: BrowserConfig.Fetcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	radius := cfg.WindowRadius
	if radius < 0 {
		radius = domain.DefaultWindowRadius
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Browser{
		fetcher:      cfg.Fetcher,
		logger:       logger.With(slog.String("component", "app.Browser")),
		metrics:      cfg.Metrics,
		pageSize:     pageSize,
		radius:       radius,
		fetchTimeout: cfg.FetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
		state:        queryState{status: StatusLoading, page: 1},
		subscribers:  make(map[uint64]chan View),
	}
	b.view = b.state.project(b.pageSize, b.radius, 0)

	return b
}

// Start issues the initial fetch.
func (b *Browser) Start() (View, error) {
	return b.Dispatch(FetchStarted{})
}

// Snapshot returns the latest published view.
func (b *Browser) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.view
}

// Dispatch applies intent and returns the view after it. A rejected intent
// leaves the state untouched and returns the current view together with a
// *domain.IntentError.
func (b *Browser) Dispatch(intent Intent) (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return b.view, ErrBrowserClosed
	}

	err := b.apply(intent)
	if err != nil {
		b.metrics.intent(intent.Name(), outcomeRejected)
		b.logger.Debug("intent rejected",
			slog.String("intent", intent.Name()),
			slog.Any("error", err),
		)

		return b.view, err
	}

	b.metrics.intent(intent.Name(), outcomeApplied)
	b.publishLocked()

	b.logger.Log(context.Background(), logging.LevelTrace, "intent applied",
		slog.String("intent", intent.Name()),
		slog.String("status", string(b.view.Status)),
		slog.Int("page", b.view.CurrentPage),
		slog.Uint64("version", b.view.Version),
	)

	return b.view, nil
}

// apply mutates state for intent. Callers hold b.mu.
func (b *Browser) apply(intent Intent) error {
	switch in := intent.(type) {
	case FetchStarted:
		b.startFetchLocked()

	case FetchSucceeded:
		if err := b.acceptCompletionLocked(in.Name(), in.RequestID); err != nil {
			return err
		}

		b.state.status = StatusReady
		b.state.err = nil
		b.state.all = slices.Clone(in.Quotes)
		b.state.query = ""
		b.state.page = 1

	case FetchFailed:
		if err := b.acceptCompletionLocked(in.Name(), in.RequestID); err != nil {
			return err
		}

		b.state.status = StatusFailed
		b.state.err = domain.NewFetchError(in.Err)

	case SearchQueryChanged:
		if err := b.requireLocked(in.Name(), StatusReady); err != nil {
			return err
		}

		b.state.query = in.Text

	case SearchSubmitted:
		if err := b.requireLocked(in.Name(), StatusReady); err != nil {
			return err
		}

		b.state.page = 1

	case DisplayAllRequested:
		if err := b.requireLocked(in.Name(), StatusReady); err != nil {
			return err
		}

		b.state.query = ""
		b.state.page = 1

	case PageChanged:
		if err := b.requireLocked(in.Name(), StatusReady); err != nil {
			return err
		}

		if in.Page < 1 || in.Page > b.view.TotalPages {
			return domain.NewIntentError(in.Name(), "page out of range")
		}

		b.state.page = in.Page

	case RetryRequested:
		if err := b.requireLocked(in.Name(), StatusFailed); err != nil {
			return err
		}

		b.startFetchLocked()

	default:
		return domain.NewValidationErrorWithValue("intent", "unsupported intent", intent)
	}

	return nil
}

func (b *Browser) requireLocked(intent string, status Status) error {
	if b.state.status != status {
		return domain.NewIntentError(intent, "browser is "+string(b.state.status))
	}

	return nil
}

// acceptCompletionLocked checks that a fetch completion belongs to the latest
// request and that the browser is still waiting for it.
func (b *Browser) acceptCompletionLocked(intent string, requestID uint64) error {
	if requestID != b.requestID {
		b.metrics.staleFetch()

		return domain.NewIntentError(intent, "stale request id")
	}

	if err := b.requireLocked(intent, StatusLoading); err != nil {
		return err
	}

	if b.cancelFetch != nil {
		b.cancelFetch()
		b.cancelFetch = nil
	}

	return nil
}

// startFetchLocked cancels any fetch in flight and issues a new one under a
// fresh request id.
func (b *Browser) startFetchLocked() {
	if b.cancelFetch != nil {
		b.cancelFetch()
	}

	b.requestID++
	id := b.requestID

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	if b.fetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(b.ctx, b.fetchTimeout)
	} else {
		ctx, cancel = context.WithCancel(b.ctx)
	}

	b.cancelFetch = cancel
	b.state.status = StatusLoading
	b.state.err = nil

	b.fetches.Go(func() error {
		defer cancel()

		b.fetch(ctx, id)

		return nil
	})
}

func (b *Browser) fetch(ctx context.Context, id uint64) {
	start := time.Now()

	quotes, err := b.fetcher.FetchAllQuotes(ctx)

	var intent Intent
	if err != nil {
		b.metrics.fetched("error", time.Since(start).Seconds())
		b.logger.Warn("quote fetch failed",
			slog.Uint64("request_id", id),
			slog.Any("error", err),
		)

		intent = FetchFailed{RequestID: id, Err: err}
	} else {
		b.metrics.fetched("success", time.Since(start).Seconds())
		b.logger.Info("quote fetch completed",
			slog.Uint64("request_id", id),
			slog.Int("count", len(quotes)),
			slog.Duration("duration", time.Since(start)),
		)

		intent = FetchSucceeded{RequestID: id, Quotes: quotes}
	}

	if _, err := b.Dispatch(intent); err != nil {
		b.logger.Debug("fetch result discarded",
			slog.Uint64("request_id", id),
			slog.Any("reason", err),
		)
	}
}

// Subscribe returns a channel that receives the current view immediately and
// every later view. The channel holds only the latest view: a slow reader
// skips intermediate versions and never blocks Dispatch. The returned func
// unsubscribes and closes the channel.
func (b *Browser) Subscribe() (<-chan View, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan View, 1)
	ch <- b.view

	if b.closed {
		close(ch)

		return ch, func() {}
	}

	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

// publishLocked recomputes the view and hands it to every subscriber.
func (b *Browser) publishLocked() {
	b.view = b.state.project(b.pageSize, b.radius, b.view.Version+1)

	for _, ch := range b.subscribers {
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- b.view:
		default:
		}
	}
}

// Close cancels any fetch in flight, waits for it to return, and closes all
// subscriber channels. Close is idempotent.
func (b *Browser) Close(ctx context.Context) error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()

		return nil
	}

	b.closed = true
	b.cancel()

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}

	b.mu.Unlock()

	done := make(chan struct{})

	go func() {
		_ = b.fetches.Wait()

		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
