package domain

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// DefaultPageSize is the number of quotes shown per page.
	DefaultPageSize = 5

	// DefaultWindowRadius is how many page numbers are shown on each side of
	// the current page in a page window.
	DefaultWindowRadius = 2
)

// Page is one slice of a filtered quote list.
type Page struct {
	// TotalPages is ceil(len(filtered)/pageSize), 0 for an empty list.
	TotalPages int

	// Quotes is the slice of the filtered list for the requested page.
	// Empty, never nil, when the page lies beyond the data.
	Quotes []Quote
}

// PageLink is one element of a page window: either a page number or an
// ellipsis marking skipped pages.
type PageLink struct {
	Page     int
	Ellipsis bool
}

// PageNumber returns a PageLink pointing at page n.
func PageNumber(n int) PageLink {
	return PageLink{Page: n}
}

// Gap returns an ellipsis PageLink.
func Gap() PageLink {
	return PageLink{Ellipsis: true}
}

// String renders the link the way a pagination control shows it.
func (l PageLink) String() string {
	if l.Ellipsis {
		return "..."
	}

	return strconv.Itoa(l.Page)
}

// Filter returns the ordered subsequence of quotes whose text or author
// contains query as a case-insensitive substring.
// A blank query returns quotes unchanged.
func Filter(quotes []Quote, query string) []Quote {
	if strings.TrimSpace(query) == "" {
		return quotes
	}

	// Casers are stateful and must not be shared between goroutines.
	folder := cases.Fold()
	needle := folder.String(query)

	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if strings.Contains(folder.String(q.Text), needle) ||
			strings.Contains(folder.String(q.Author), needle) {
			out = append(out, q)
		}
	}

	return out
}

// Paginate slices filtered into pages of pageSize and returns the requested
// page. It never fails: an empty list or a page outside 1..TotalPages yields
// an empty page. currentPage is not clamped.
func Paginate(filtered []Quote, currentPage, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	n := len(filtered)
	page := Page{
		TotalPages: (n + pageSize - 1) / pageSize,
		Quotes:     []Quote{},
	}

	if currentPage < 1 {
		return page
	}

	start := (currentPage - 1) * pageSize
	end := min(start+pageSize, n)

	if start >= n || start >= end {
		return page
	}

	page.Quotes = filtered[start:end:end]

	return page
}

// PageWindow returns the compact list of page links for a pagination control:
// the first and last page, every page within radius of currentPage, and a
// single ellipsis wherever more than one page number is skipped.
func PageWindow(currentPage, totalPages, radius int) []PageLink {
	if totalPages < 1 {
		return []PageLink{}
	}

	if radius < 0 {
		radius = 0
	}

	lo := max(currentPage-radius, 1)
	hi := min(currentPage+radius, totalPages)

	pages := make([]int, 0, hi-lo+3)
	pages = append(pages, 1)

	for p := lo; p <= hi; p++ {
		if p > pages[len(pages)-1] {
			pages = append(pages, p)
		}
	}

	if totalPages > pages[len(pages)-1] {
		pages = append(pages, totalPages)
	}

	links := make([]PageLink, 0, len(pages)*2)
	last := 0

	for _, p := range pages {
		if p > last+1 {
			links = append(links, Gap())
		}

		links = append(links, PageNumber(p))
		last = p
	}

	return links
}

// Result is the derived display state for one QueryState.
// All fields are computed together and are consistent with each other.
type Result struct {
	Filtered    []Quote
	TotalPages  int
	PageQuotes  []Quote
	CurrentPage int
	Window      []PageLink
	HasPrevious bool
	HasNext     bool
}

// Query runs filter, then paginate, then page window, in that order.
func Query(quotes []Quote, query string, currentPage, pageSize, radius int) Result {
	filtered := Filter(quotes, query)
	page := Paginate(filtered, currentPage, pageSize)

	return Result{
		Filtered:    filtered,
		TotalPages:  page.TotalPages,
		PageQuotes:  page.Quotes,
		CurrentPage: currentPage,
		Window:      PageWindow(currentPage, page.TotalPages, radius),
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < page.TotalPages,
	}
}
