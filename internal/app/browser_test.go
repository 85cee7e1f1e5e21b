package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-browser/internal/domain"
)

const waitTimeout = 2 * time.Second

// fetcherFunc adapts a function to ports.QuoteFetcher.
type fetcherFunc func(ctx context.Context) ([]domain.Quote, error)

func (f fetcherFunc) FetchAllQuotes(ctx context.Context) ([]domain.Quote, error) {
	return f(ctx)
}

func returning(quotes []domain.Quote) fetcherFunc {
	return func(context.Context) ([]domain.Quote, error) {
		return quotes, nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func numbered(n int) []domain.Quote {
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		quotes[i] = domain.Quote{ID: i + 1, Text: fmt.Sprintf("quote %d", i+1), Author: "someone"}
	}

	return quotes
}

func quoteIDs(quotes []domain.Quote) []int {
	out := make([]int, len(quotes))
	for i, q := range quotes {
		out[i] = q.ID
	}

	return out
}

func newTestBrowser(t *testing.T, fetcher fetcherFunc, opts ...func(*BrowserConfig)) *Browser {
	t.Helper()

	cfg := BrowserConfig{
		Fetcher:      fetcher,
		Logger:       discardLogger(),
		PageSize:     5,
		WindowRadius: 2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := NewBrowser(cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()

		_ = b.Close(ctx)
	})

	return b
}

// waitForView blocks until the browser publishes a view matching pred.
func waitForView(t *testing.T, b *Browser, pred func(View) bool) View {
	t.Helper()

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	timeout := time.After(waitTimeout)

	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "browser closed while waiting")

			if pred(v) {
				return v
			}
		case <-timeout:
			t.Fatalf("timed out waiting for view; last: %+v", b.Snapshot())
		}
	}
}

func isReady(v View) bool  { return v.Status == StatusReady }
func isFailed(v View) bool { return v.Status == StatusFailed }

func startReady(t *testing.T, quotes []domain.Quote) *Browser {
	t.Helper()

	b := newTestBrowser(t, returning(quotes))
	_, err := b.Start()
	require.NoError(t, err)
	waitForView(t, b, isReady)

	return b
}

func TestNewBrowser(t *testing.T) {
	t.Run("panics without fetcher", func(t *testing.T) {
		assert.Panics(t, func() { NewBrowser(BrowserConfig{}) })
	})

	t.Run("starts loading on page one", func(t *testing.T) {
		b := newTestBrowser(t, returning(nil))
		v := b.Snapshot()

		assert.Equal(t, StatusLoading, v.Status)
		assert.True(t, v.Loading())
		assert.Equal(t, 1, v.CurrentPage)
		assert.Equal(t, uint64(0), v.Version)
		assert.Empty(t, v.PageQuotes)
	})

	t.Run("defaults page size and radius", func(t *testing.T) {
		b := NewBrowser(BrowserConfig{Fetcher: returning(nil), PageSize: -1, WindowRadius: -1})
		defer func() { _ = b.Close(context.Background()) }()

		assert.Equal(t, domain.DefaultPageSize, b.pageSize)
		assert.Equal(t, domain.DefaultWindowRadius, b.radius)
	})
}

func TestBrowser_FetchSucceeds(t *testing.T) {
	b := newTestBrowser(t, returning(numbered(12)))

	v, err := b.Start()
	require.NoError(t, err)
	assert.True(t, v.Loading())

	v = waitForView(t, b, isReady)

	assert.Equal(t, 12, v.TotalQuotes)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, quoteIDs(v.PageQuotes))
	assert.False(t, v.HasPrevious)
	assert.True(t, v.HasNext)
	assert.Empty(t, v.Error)
}

func TestBrowser_AuthorSearch(t *testing.T) {
	b := startReady(t, []domain.Quote{
		{ID: 1, Text: "x", Author: "A"},
		{ID: 2, Text: "y", Author: "B"},
		{ID: 3, Text: "z", Author: "A"},
		{ID: 4, Text: "w", Author: "C"},
	})

	v, err := b.Dispatch(SearchQueryChanged{Text: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", v.Query)

	v, err = b.Dispatch(SearchSubmitted{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, quoteIDs(v.FilteredQuotes))
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, []domain.PageLink{domain.PageNumber(1)}, v.Window)
}

func TestBrowser_PageChanged(t *testing.T) {
	b := startReady(t, numbered(12))

	v, err := b.Dispatch(PageChanged{Page: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{6, 7, 8, 9, 10}, quoteIDs(v.PageQuotes))
	assert.Equal(t, 2, v.CurrentPage)
	assert.True(t, v.HasPrevious)
	assert.True(t, v.HasNext)

	before := b.Snapshot()

	for _, page := range []int{99, 0, -1} {
		v, err = b.Dispatch(PageChanged{Page: page})
		require.Error(t, err, "page %d", page)
		assert.True(t, domain.IsIntentRejected(err))
		assert.Contains(t, err.Error(), "page out of range")
		assert.Equal(t, before, v)
	}

	assert.Equal(t, before, b.Snapshot())
}

func TestBrowser_SearchQueryChangedKeepsPage(t *testing.T) {
	b := startReady(t, numbered(12))

	_, err := b.Dispatch(PageChanged{Page: 3})
	require.NoError(t, err)

	v, err := b.Dispatch(SearchQueryChanged{Text: "quote 1"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.CurrentPage)
	assert.Empty(t, v.PageQuotes)

	v, err = b.Dispatch(SearchSubmitted{})
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, []int{1, 10, 11, 12}, quoteIDs(v.PageQuotes))
}

func TestBrowser_DisplayAll(t *testing.T) {
	b := startReady(t, numbered(12))

	_, err := b.Dispatch(SearchQueryChanged{Text: "nothing matches this"})
	require.NoError(t, err)

	v, err := b.Dispatch(SearchSubmitted{})
	require.NoError(t, err)
	assert.Empty(t, v.FilteredQuotes)
	assert.Equal(t, `no results for "nothing matches this"`, v.EmptyMessage())
	assert.Equal(t, 0, v.TotalPages)

	v, err = b.Dispatch(DisplayAllRequested{})
	require.NoError(t, err)
	assert.Empty(t, v.Query)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Len(t, v.FilteredQuotes, 12)
	assert.Empty(t, v.EmptyMessage())
}

func TestBrowser_ViewsDoNotShareState(t *testing.T) {
	fetched := numbered(12)
	b := startReady(t, fetched)

	v := b.Snapshot()
	require.Len(t, v.FilteredQuotes, 12)
	require.Len(t, v.PageQuotes, 5)

	v.FilteredQuotes[0] = domain.Quote{ID: 99, Text: "tampered"}
	v.PageQuotes[1] = domain.Quote{ID: 98, Text: "tampered"}
	fetched[2] = domain.Quote{ID: 97, Text: "tampered"}

	next, err := b.Dispatch(DisplayAllRequested{})
	require.NoError(t, err)

	assert.Equal(t, quoteIDs(numbered(12)), quoteIDs(next.FilteredQuotes))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, quoteIDs(next.PageQuotes))
	assert.Equal(t, numbered(12)[0], b.Snapshot().FilteredQuotes[0])
}

func TestBrowser_FailureAndRetry(t *testing.T) {
	var calls atomic.Int32

	b := newTestBrowser(t, func(context.Context) ([]domain.Quote, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("timeout")
		}

		return numbered(3), nil
	})

	_, err := b.Start()
	require.NoError(t, err)

	v := waitForView(t, b, isFailed)
	assert.Equal(t, "timeout", v.Error)
	assert.False(t, v.Loading())

	_, err = b.Dispatch(SearchQueryChanged{Text: "x"})
	require.Error(t, err)
	assert.True(t, domain.IsIntentRejected(err))

	v, err = b.Dispatch(RetryRequested{})
	require.NoError(t, err)
	assert.True(t, v.Loading())
	assert.Empty(t, v.Error)

	v = waitForView(t, b, isReady)
	assert.Len(t, v.FilteredQuotes, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBrowser_EmptyFailureMessage(t *testing.T) {
	b := newTestBrowser(t, func(context.Context) ([]domain.Quote, error) {
		return nil, errors.New("")
	})

	_, err := b.Start()
	require.NoError(t, err)

	v := waitForView(t, b, isFailed)
	assert.Equal(t, "an unknown error occurred", v.Error)
}

func TestBrowser_RejectsOutOfStateIntents(t *testing.T) {
	release := make(chan struct{})
	b := newTestBrowser(t, func(ctx context.Context) ([]domain.Quote, error) {
		select {
		case <-release:
			return numbered(1), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	defer close(release)

	_, err := b.Start()
	require.NoError(t, err)

	for _, intent := range []Intent{
		SearchQueryChanged{Text: "x"},
		SearchSubmitted{},
		DisplayAllRequested{},
		PageChanged{Page: 1},
		RetryRequested{},
	} {
		_, err := b.Dispatch(intent)
		require.Error(t, err, intent.Name())
		assert.True(t, domain.IsIntentRejected(err), intent.Name())
		assert.Contains(t, err.Error(), "browser is loading")
	}

	assert.Equal(t, StatusLoading, b.Snapshot().Status)
}

func TestBrowser_StaleCompletionDiscarded(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	b := newTestBrowser(t, returning(numbered(2)), func(cfg *BrowserConfig) {
		cfg.Metrics = metrics
	})

	_, err := b.Start()
	require.NoError(t, err)
	ready := waitForView(t, b, isReady)

	_, err = b.Dispatch(FetchSucceeded{RequestID: 999, Quotes: numbered(9)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale request id")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.staleFetches))

	_, err = b.Dispatch(FetchFailed{RequestID: b.requestID, Err: errors.New("late")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser is ready")

	assert.Equal(t, ready, b.Snapshot())
}

func TestBrowser_RefetchSupersedesInFlight(t *testing.T) {
	var calls atomic.Int32

	firstCanceled := make(chan struct{})

	b := newTestBrowser(t, func(ctx context.Context) ([]domain.Quote, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			close(firstCanceled)

			return numbered(1), nil
		}

		return numbered(7), nil
	})

	_, err := b.Start()
	require.NoError(t, err)

	_, err = b.Dispatch(FetchStarted{})
	require.NoError(t, err)

	select {
	case <-firstCanceled:
	case <-time.After(waitTimeout):
		t.Fatal("first fetch was not canceled")
	}

	v := waitForView(t, b, isReady)
	assert.Equal(t, 7, v.TotalQuotes)
}

func TestBrowser_FetchTimeout(t *testing.T) {
	b := newTestBrowser(t, func(ctx context.Context) ([]domain.Quote, error) {
		<-ctx.Done()

		return nil, ctx.Err()
	}, func(cfg *BrowserConfig) {
		cfg.FetchTimeout = 20 * time.Millisecond
	})

	_, err := b.Start()
	require.NoError(t, err)

	v := waitForView(t, b, isFailed)
	assert.Equal(t, context.DeadlineExceeded.Error(), v.Error)
}

func TestBrowser_SubscribeLatestValue(t *testing.T) {
	b := startReady(t, numbered(20))

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for page := 2; page <= 4; page++ {
		_, err := b.Dispatch(PageChanged{Page: page})
		require.NoError(t, err)
	}

	v := <-ch
	assert.Equal(t, 4, v.CurrentPage)
	assert.Equal(t, b.Snapshot().Version, v.Version)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected buffered view %d", extra.Version)
	default:
	}
}

func TestBrowser_VersionIncreases(t *testing.T) {
	b := startReady(t, numbered(20))
	before := b.Snapshot().Version

	v, err := b.Dispatch(PageChanged{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, before+1, v.Version)

	_, err = b.Dispatch(PageChanged{Page: 50})
	require.Error(t, err)
	assert.Equal(t, before+1, b.Snapshot().Version)
}

func TestBrowser_UnsubscribeClosesChannel(t *testing.T) {
	b := startReady(t, numbered(1))

	ch, unsubscribe := b.Subscribe()
	<-ch

	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBrowser_Close(t *testing.T) {
	fetchDone := make(chan struct{})
	b := newTestBrowser(t, func(ctx context.Context) ([]domain.Quote, error) {
		defer close(fetchDone)
		<-ctx.Done()

		return nil, ctx.Err()
	})

	_, err := b.Start()
	require.NoError(t, err)

	ch, _ := b.Subscribe()
	<-ch

	require.NoError(t, b.Close(context.Background()))
	<-fetchDone

	_, ok := <-ch
	assert.False(t, ok, "subscriber channel should be closed")

	_, err = b.Dispatch(RetryRequested{})
	require.ErrorIs(t, err, ErrBrowserClosed)

	require.NoError(t, b.Close(context.Background()))

	late, unsubscribe := b.Subscribe()
	defer unsubscribe()

	_, ok = <-late
	assert.True(t, ok, "late subscriber still gets the final view")

	_, ok = <-late
	assert.False(t, ok)
}

type unknownIntent struct{}

func (unknownIntent) Name() string { return "unknown" }

func TestBrowser_UnknownIntent(t *testing.T) {
	b := startReady(t, numbered(1))

	_, err := b.Dispatch(unknownIntent{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		page     int
		expected Intent
	}{
		{name: IntentSearchQueryChanged, text: "wisdom", expected: SearchQueryChanged{Text: "wisdom"}},
		{name: IntentSearchSubmitted, expected: SearchSubmitted{}},
		{name: IntentDisplayAll, expected: DisplayAllRequested{}},
		{name: IntentPageChanged, page: 3, expected: PageChanged{Page: 3}},
		{name: IntentRetry, expected: RetryRequested{}},
		{name: IntentFetchStarted, expected: FetchStarted{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.name, tt.text, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.name, got.Name())
		})
	}

	for _, name := range []string{"", IntentFetchSucceeded, IntentFetchFailed, "bogus"} {
		_, err := ParseIntent(name, "", 0)
		assert.True(t, domain.IsValidation(err), "name %q", name)
	}
}
