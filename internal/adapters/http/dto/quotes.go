package dto

import (
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/domain"
)

// QuoteResponse is one quote on the wire.
type QuoteResponse struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// PageLinkResponse is one element of a page window. Page is 0 for an
// ellipsis.
type PageLinkResponse struct {
	Page     int    `json:"page,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
	Label    string `json:"label"`
}

// PageResponse is one page of search results.
type PageResponse struct {
	Items       []QuoteResponse    `json:"items"`
	Query       string             `json:"query"`
	Page        int                `json:"page"`
	TotalPages  int                `json:"totalPages"`
	TotalItems  int                `json:"totalItems"`
	HasPrevious bool               `json:"hasPrevious"`
	HasNext     bool               `json:"hasNext"`
	Window      []PageLinkResponse `json:"window"`
	Empty       string             `json:"emptyMessage,omitempty"`
}

// ViewResponse is a browser view on the wire.
type ViewResponse struct {
	PageResponse

	Status  string `json:"status"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version"`
}

// ScreenResponse is returned when a screen is opened.
type ScreenResponse struct {
	ID   string       `json:"id"`
	View ViewResponse `json:"view"`
}

// SearchRequest holds the query parameters of a one-shot search.
type SearchRequest struct {
	Query string `form:"q" json:"q" validate:"max=200"`
	Page  int    `form:"page" json:"page" validate:"omitempty,gte=1"`
}

// GetPage returns the requested page, 1 when unset.
func (r *SearchRequest) GetPage() int {
	if r.Page <= 0 {
		return 1
	}

	return r.Page
}

// ScreenURI binds the screen id path parameter.
type ScreenURI struct {
	ID string `uri:"id" json:"id" validate:"required,uuid"`
}

// IntentRequest is the body of POST /screens/:id/intents. Page is only
// meaningful for page_changed and is range-checked by the browser.
type IntentRequest struct {
	Type string `json:"type" validate:"required,oneof=search_query_changed search_submitted display_all page_changed retry"`
	Text string `json:"text" validate:"max=200"`
	Page int    `json:"page"`
}

// FromQuotes converts domain quotes. The result is never nil.
func FromQuotes(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = QuoteResponse{ID: q.ID, Text: q.Text, Author: q.Author}
	}

	return out
}

// FromWindow converts a page window. The result is never nil.
func FromWindow(window []domain.PageLink) []PageLinkResponse {
	out := make([]PageLinkResponse, len(window))
	for i, l := range window {
		out[i] = PageLinkResponse{Page: l.Page, Ellipsis: l.Ellipsis, Label: l.String()}
	}

	return out
}

// FromResult converts a query engine result for query.
func FromResult(query string, r domain.Result) PageResponse {
	resp := PageResponse{
		Items:       FromQuotes(r.PageQuotes),
		Query:       query,
		Page:        r.CurrentPage,
		TotalPages:  r.TotalPages,
		TotalItems:  len(r.Filtered),
		HasPrevious: r.HasPrevious,
		HasNext:     r.HasNext,
		Window:      FromWindow(r.Window),
	}

	resp.Empty = app.View{Status: app.StatusReady, Query: query, FilteredQuotes: r.Filtered}.EmptyMessage()

	return resp
}

// FromView converts a browser view.
func FromView(v app.View) ViewResponse {
	return ViewResponse{
		PageResponse: PageResponse{
			Items:       FromQuotes(v.PageQuotes),
			Query:       v.Query,
			Page:        v.CurrentPage,
			TotalPages:  v.TotalPages,
			TotalItems:  len(v.FilteredQuotes),
			HasPrevious: v.HasPrevious,
			HasNext:     v.HasNext,
			Window:      FromWindow(v.Window),
			Empty:       v.EmptyMessage(),
		},
		Status:  string(v.Status),
		Loading: v.Loading(),
		Error:   v.Error,
		Version: v.Version,
	}
}
