package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-browser/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/domain"
)

type fetcherFunc func(ctx context.Context) ([]domain.Quote, error)

func (f fetcherFunc) FetchAllQuotes(ctx context.Context) ([]domain.Quote, error) {
	return f(ctx)
}

func screenRouter(t *testing.T, fetcher fetcherFunc, maxScreens int) *gin.Engine {
	t.Helper()

	screens := app.NewScreens(app.ScreensConfig{
		Browser:    app.BrowserConfig{Fetcher: fetcher, PageSize: 2},
		MaxScreens: maxScreens,
		Logger:     discardLogger(),
	})
	t.Cleanup(func() { _ = screens.CloseAll(context.Background()) })

	engine := gin.New()
	NewScreenHandler(screens, 50*time.Millisecond).RegisterRoutes(engine.Group("/api/v1"))

	return engine
}

func do(engine http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	return w
}

func openScreen(t *testing.T, engine http.Handler) dto.ScreenResponse {
	t.Helper()

	w := do(engine, http.MethodPost, "/api/v1/screens", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.ScreenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/api/v1/screens/"+resp.ID, w.Header().Get("Location"))

	return resp
}

func waitReady(t *testing.T, engine http.Handler, id string) dto.ViewResponse {
	t.Helper()

	var view dto.ViewResponse

	require.Eventually(t, func() bool {
		w := do(engine, http.MethodGet, "/api/v1/screens/"+id, "")
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &view) != nil {
			return false
		}

		return view.Status == string(app.StatusReady)
	}, 2*time.Second, 5*time.Millisecond)

	return view
}

func sendIntent(engine http.Handler, id, body string) *httptest.ResponseRecorder {
	return do(engine, http.MethodPost, "/api/v1/screens/"+id+"/intents", body)
}

func TestScreenHandler_Lifecycle(t *testing.T) {
	engine := screenRouter(t, func(context.Context) ([]domain.Quote, error) {
		return sampleQuotes(), nil
	}, 0)

	screen := openScreen(t, engine)
	assert.True(t, screen.View.Loading)
	assert.Equal(t, "loading", screen.View.Status)

	view := waitReady(t, engine, screen.ID)
	assert.Equal(t, 2, view.TotalPages)
	assert.Len(t, view.Items, 2)

	w := sendIntent(engine, screen.ID, `{"type":"page_changed","page":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, []int{3, 4}, []int{view.Items[0].ID, view.Items[1].ID})

	w = sendIntent(engine, screen.ID, `{"type":"search_query_changed","text":"Unique"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = sendIntent(engine, screen.ID, `{"type":"search_submitted"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalItems)
	assert.Equal(t, "Unique", view.Query)

	w = sendIntent(engine, screen.ID, `{"type":"display_all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 4, view.TotalItems)
	assert.Empty(t, view.Query)

	w = do(engine, http.MethodDelete, "/api/v1/screens/"+screen.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/screens/"+screen.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScreenHandler_IntentErrors(t *testing.T) {
	engine := screenRouter(t, func(context.Context) ([]domain.Quote, error) {
		return sampleQuotes(), nil
	}, 0)

	screen := openScreen(t, engine)
	before := waitReady(t, engine, screen.ID)

	tests := []struct {
		name    string
		body    string
		status  int
		errCode string
	}{
		{name: "page out of range", body: `{"type":"page_changed","page":99}`, status: http.StatusConflict, errCode: dto.ErrorCodeIntentRejected},
		{name: "retry while ready", body: `{"type":"retry"}`, status: http.StatusConflict, errCode: dto.ErrorCodeIntentRejected},
		{name: "unknown type", body: `{"type":"fetch_succeeded"}`, status: http.StatusBadRequest, errCode: dto.ErrorCodeValidation},
		{name: "missing type", body: `{}`, status: http.StatusBadRequest, errCode: dto.ErrorCodeValidation},
		{name: "malformed body", body: `{"type":`, status: http.StatusBadRequest, errCode: dto.ErrorCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sendIntent(engine, screen.ID, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.errCode, resp.Error.Code)
		})
	}

	after := waitReady(t, engine, screen.ID)
	assert.Equal(t, before, after)
}

func TestScreenHandler_UnknownScreen(t *testing.T) {
	engine := screenRouter(t, func(context.Context) ([]domain.Quote, error) { return nil, nil }, 0)

	w := do(engine, http.MethodGet, "/api/v1/screens/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = do(engine, method, "/api/v1/screens/550e8400-e29b-41d4-a716-446655440000", "")
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

func TestScreenHandler_TooManyScreens(t *testing.T) {
	engine := screenRouter(t, func(context.Context) ([]domain.Quote, error) { return nil, nil }, 1)

	openScreen(t, engine)

	w := do(engine, http.MethodPost, "/api/v1/screens", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScreenHandler_FailedFetchAndRetry(t *testing.T) {
	fail := make(chan bool, 2)
	fail <- true
	fail <- false

	engine := screenRouter(t, func(context.Context) ([]domain.Quote, error) {
		if <-fail {
			return nil, domain.NewUnavailableError("dummyjson", "timeout")
		}

		return sampleQuotes(), nil
	}, 0)

	screen := openScreen(t, engine)

	var view dto.ViewResponse

	require.Eventually(t, func() bool {
		w := do(engine, http.MethodGet, "/api/v1/screens/"+screen.ID, "")

		return json.Unmarshal(w.Body.Bytes(), &view) == nil && view.Status == string(app.StatusFailed)
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, view.Error, "timeout")

	w := sendIntent(engine, screen.ID, `{"type":"retry"}`)
	require.Equal(t, http.StatusOK, w.Code)

	view = waitReady(t, engine, screen.ID)
	assert.Equal(t, 4, view.TotalItems)
	assert.Empty(t, view.Error)
}

func TestScreenHandler_Events(t *testing.T) {
	release := make(chan struct{})
	engine := screenRouter(t, func(ctx context.Context) ([]domain.Quote, error) {
		select {
		case <-release:
			return sampleQuotes(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, 0)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	screen := openScreen(t, engine)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet,
		server.URL+"/api/v1/screens/"+screen.ID+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan string, 16)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(resp.Body)
		event := ""

		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				events <- event + " " + strings.TrimPrefix(line, "data:")
			}
		}
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream ended early")

			return e
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")

			return ""
		}
	}

	assert.Contains(t, next(), `"status":"loading"`)

	close(release)

	for {
		if e := next(); strings.Contains(e, `"status":"ready"`) {
			assert.True(t, strings.HasPrefix(e, "view "))

			break
		}
	}

	w := do(engine, http.MethodDelete, "/api/v1/screens/"+screen.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, `closed {"id":"`+screen.ID+`"}`, next())
}
