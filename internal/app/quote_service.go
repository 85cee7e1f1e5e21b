package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quote-browser/internal/domain"
	"github.com/jsamuelsen/quote-browser/internal/ports"
)

// QuoteService answers one-shot searches: fetch the catalogue, then run the
// query engine over it. It holds no per-caller state.
type QuoteService struct {
	fetcher  ports.QuoteFetcher
	pageSize int
	radius   int
	logger   *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Fetcher      ports.QuoteFetcher
	PageSize     int
	WindowRadius int
	Logger       *slog.Logger
}

// NewQuoteService creates a QuoteService. It panics if Fetcher is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Fetcher == nil {
		panic("app: QuoteServiceConfig.Fetcher is required")
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

	return &QuoteService{
		fetcher:  cfg.Fetcher,
		pageSize: pageSize,
		radius:   radius,
		logger:   logger,
	}
}

// PageSize returns the number of quotes per page.
func (s *QuoteService) PageSize() int {
	return s.pageSize
}

// Search fetches all quotes and returns the requested page of those matching
// query. A page outside 1..TotalPages yields an empty page, not an error.
// Fetch failures are returned as a *domain.FetchError wrapping the cause.
func (s *QuoteService) Search(ctx context.Context, query string, page int) (domain.Result, error) {
	if page < 1 {
		return domain.Result{}, domain.NewValidationErrorWithValue("page", "must be at least 1", page)
	}

	quotes, err := s.fetcher.FetchAllQuotes(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch quotes", slog.Any("error", err))

		return domain.Result{}, domain.NewFetchError(err)
	}

	result := domain.Query(quotes, query, page, s.pageSize, s.radius)

	s.logger.InfoContext(ctx, "searched quotes",
		slog.String("query", query),
		slog.Int("page", page),
		slog.Int("matches", len(result.Filtered)),
		slog.Int("total_pages", result.TotalPages),
	)

	return result, nil
}
