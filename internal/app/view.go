package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jsamuelsen/quote-browser/internal/domain"
)

// Status is the lifecycle state of a Browser.
type Status string

const (
	// StatusLoading means a fetch is in flight.
	StatusLoading Status = "loading"

	// StatusReady means quotes are available for search and paging.
	StatusReady Status = "ready"

	// StatusFailed means the last fetch failed; only a retry leaves this state.
	StatusFailed Status = "failed"
)

// View is an immutable snapshot of everything a presentation layer renders.
// Derived fields are always computed from the same query state in one step.
// Its quote slices never share memory with the browser's state, so writing
// to them cannot change what later views show.
type View struct {
	Status         Status
	Error          string
	Query          string
	FilteredQuotes []domain.Quote
	PageQuotes     []domain.Quote
	CurrentPage    int
	TotalPages     int
	Window         []domain.PageLink
	HasPrevious    bool
	HasNext        bool
	TotalQuotes    int

	// Version increases by one with every published view.
	Version uint64
}

// Loading reports whether a progress indicator should be shown.
func (v View) Loading() bool {
	return v.Status == StatusLoading
}

// EmptyMessage returns the "no results" text shown when a non-blank search
// matches nothing, or "" otherwise.
func (v View) EmptyMessage() string {
	if v.Status != StatusReady || strings.TrimSpace(v.Query) == "" || len(v.FilteredQuotes) > 0 {
		return ""
	}

	return fmt.Sprintf("no results for %q", v.Query)
}

// queryState is the single source of truth owned by a Browser.
type queryState struct {
	status Status
	err    error
	all    []domain.Quote
	query  string
	page   int
}

// project computes the view for s. It is the only place derived state is built.
// A blank query filters to s.all itself, so the quote slices are copied
// before they leave the browser.
func (s *queryState) project(pageSize, radius int, version uint64) View {
	res := domain.Query(s.all, s.query, s.page, pageSize, radius)

	if strings.TrimSpace(s.query) == "" {
		res.Filtered = slices.Clone(res.Filtered)
		res.PageQuotes = slices.Clone(res.PageQuotes)
	}

	v := View{
		Status:         s.status,
		Query:          s.query,
		FilteredQuotes: res.Filtered,
		PageQuotes:     res.PageQuotes,
		CurrentPage:    res.CurrentPage,
		TotalPages:     res.TotalPages,
		Window:         res.Window,
		HasPrevious:    res.HasPrevious,
		HasNext:        res.HasNext,
		TotalQuotes:    len(s.all),
		Version:        version,
	}

	if s.err != nil {
		v.Error = s.err.Error()
	}

	return v
}
