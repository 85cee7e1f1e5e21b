package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-browser/internal/domain"
	"github.com/jsamuelsen/quote-browser/internal/mocks"
)

func TestNewQuoteService_PanicsWithoutFetcher(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteService(QuoteServiceConfig{Logger: slog.Default()})
	})
}

func TestNewQuoteService_Defaults(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{
		Fetcher:      mocks.NewMockQuoteFetcher(t),
		WindowRadius: -1,
	})

	assert.Equal(t, domain.DefaultPageSize, svc.PageSize())
	assert.Equal(t, domain.DefaultWindowRadius, svc.radius)
	assert.NotNil(t, svc.logger)
}

func TestQuoteService_Search(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		page        int
		setupMock   func(*mocks.MockQuoteFetcher)
		expectedIDs []int
		totalPages  int
		errCheck    func(error) bool
	}{
		{
			name: "first page",
			page: 1,
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchAllQuotes(mock.Anything).Return(numbered(12), nil)
			},
			expectedIDs: []int{1, 2, 3, 4, 5},
			totalPages:  3,
		},
		{
			name:  "case-insensitive filter",
			query: "QUOTE 1",
			page:  1,
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchAllQuotes(mock.Anything).Return(numbered(12), nil)
			},
			expectedIDs: []int{1, 10, 11, 12},
			totalPages:  1,
		},
		{
			name: "page beyond data is empty",
			page: 9,
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchAllQuotes(mock.Anything).Return(numbered(3), nil)
			},
			expectedIDs: []int{},
			totalPages:  1,
		},
		{
			name:     "invalid page is rejected before fetching",
			page:     0,
			errCheck: domain.IsValidation,
		},
		{
			name: "fetch failure",
			page: 1,
			setupMock: func(m *mocks.MockQuoteFetcher) {
				m.EXPECT().FetchAllQuotes(mock.Anything).
					Return(nil, domain.NewUnavailableError("dummyjson", "down"))
			},
			errCheck: func(err error) bool {
				return domain.IsFetch(err) && domain.IsUnavailable(err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := mocks.NewMockQuoteFetcher(t)
			if tt.setupMock != nil {
				tt.setupMock(fetcher)
			}

			svc := NewQuoteService(QuoteServiceConfig{
				Fetcher:  fetcher,
				PageSize: 5,
				Logger:   discardLogger(),
			})

			result, err := svc.Search(context.Background(), tt.query, tt.page)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error: %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedIDs, quoteIDs(result.PageQuotes))
			assert.Equal(t, tt.totalPages, result.TotalPages)
			assert.Equal(t, tt.page, result.CurrentPage)
		})
	}
}

func TestQuoteService_SearchPropagatesContext(t *testing.T) {
	type ctxKey struct{}

	fetcher := mocks.NewMockQuoteFetcher(t)
	fetcher.EXPECT().FetchAllQuotes(mock.Anything).
		RunAndReturn(func(ctx context.Context) ([]domain.Quote, error) {
			if ctx.Value(ctxKey{}) != "marker" {
				return nil, errors.New("context not propagated")
			}

			return numbered(1), nil
		})

	svc := NewQuoteService(QuoteServiceConfig{Fetcher: fetcher, Logger: discardLogger()})

	_, err := svc.Search(context.WithValue(context.Background(), ctxKey{}, "marker"), "", 1)
	require.NoError(t, err)
}
