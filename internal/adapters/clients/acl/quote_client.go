package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-browser/internal/adapters/clients"
	"github.com/jsamuelsen/quote-browser/internal/domain"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
)

const (
	quotesPath         = "/quotes"
	healthPath         = "/quotes?limit=1"
	operationFetchAll  = "fetch quotes"
	operationHealth    = "health check"
	defaultServiceName = "quote-service"
)

// QuoteClientConfig configures a QuoteClient.
type QuoteClientConfig struct {
	// Client must point at the dummyjson base URL.
	Client *clients.Client

	Logger *slog.Logger
}

// QuoteClient implements ports.QuoteFetcher and ports.HealthChecker against
// the dummyjson quotes API.
type QuoteClient struct {
	BaseAdapter

	logger *slog.Logger
}

// NewQuoteClient creates a QuoteClient. It panics if cfg.Client is nil.
func NewQuoteClient(cfg QuoteClientConfig) *QuoteClient {
	if cfg.Client == nil {
		panic("QuoteClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Client.ServiceName()
	if name == "" {
		name = defaultServiceName
	}

	return &QuoteClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		logger:      logger.With(slog.String("component", "acl.QuoteClient")),
	}
}

// quotesResponse is the dummyjson list envelope.
type quotesResponse struct {
	Quotes []externalQuote `json:"quotes"`
	Total  int             `json:"total"`
	Skip   int             `json:"skip"`
	Limit  int             `json:"limit"`
}

// externalQuote is one dummyjson quote. The text field is named "quote".
type externalQuote struct {
	ID     int    `json:"id"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// FetchAllQuotes fetches the complete quote list in server order. It asks for
// every record with limit=0 and keeps paging on skip while the server still
// caps the page below the reported total.
func (c *QuoteClient) FetchAllQuotes(ctx context.Context) ([]domain.Quote, error) {
	var quotes []domain.Quote

	for {
		path := fmt.Sprintf("%s?limit=0&skip=%d", quotesPath, len(quotes))
		c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

		body, err := c.Get(ctx, path, operationFetchAll)
		if err != nil {
			return nil, err
		}

		resp, err := DecodeResponse[quotesResponse](body)
		if err != nil {
			return nil, domain.NewUnavailableError(c.ServiceName(), err.Error())
		}

		page, err := TranslateSlice(resp.Quotes, translateQuote)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operationFetchAll, err)
		}

		quotes = append(quotes, page...)

		c.logger.DebugContext(ctx, "fetched quotes",
			slog.Int("count", len(page)),
			slog.Int("total", resp.Total),
			slog.Int("skip", resp.Skip),
			slog.Int("limit", resp.Limit),
		)

		if len(page) == 0 || len(quotes) >= resp.Total {
			break
		}
	}

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return quotes, nil
}

// translateQuote validates an external quote and converts it.
func translateQuote(ext *externalQuote) (domain.Quote, error) {
	if err := ValidatePositive(ext.ID, "id"); err != nil {
		return domain.Quote{}, err
	}

	text := strings.TrimSpace(ext.Quote)
	if err := ValidateRequired(text, "quote"); err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{
		ID:     ext.ID,
		Text:   text,
		Author: strings.TrimSpace(ext.Author),
	}, nil
}

// Name implements ports.HealthChecker.
func (c *QuoteClient) Name() string {
	return c.ServiceName()
}

// Check implements ports.HealthChecker with a one-item fetch.
func (c *QuoteClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, healthPath, operationHealth)
	if err != nil {
		return err
	}

	return body.Close()
}
