package app

import (
	"github.com/jsamuelsen/quote-browser/internal/domain"
)

// Intent is a request to change browser state. Every mutation of a Browser
// goes through Dispatch with one of the intent types below.
type Intent interface {
	// Name is the stable identifier used in logs, metrics and the HTTP API.
	Name() string
}

// Intent names.
const (
	IntentFetchStarted       = "fetch_started"
	IntentFetchSucceeded     = "fetch_succeeded"
	IntentFetchFailed        = "fetch_failed"
	IntentSearchQueryChanged = "search_query_changed"
	IntentSearchSubmitted    = "search_submitted"
	IntentDisplayAll         = "display_all"
	IntentPageChanged        = "page_changed"
	IntentRetry              = "retry"
)

// FetchStarted moves the browser to Loading and issues a new fetch.
type FetchStarted struct{}

// FetchSucceeded delivers the quotes of the fetch tagged RequestID.
type FetchSucceeded struct {
	RequestID uint64
	Quotes    []domain.Quote
}

// FetchFailed delivers the failure of the fetch tagged RequestID.
type FetchFailed struct {
	RequestID uint64
	Err       error
}

// SearchQueryChanged updates the search text without resetting the page.
type SearchQueryChanged struct {
	Text string
}

// SearchSubmitted resets to the first page of the current filter.
type SearchSubmitted struct{}

// DisplayAllRequested clears the search and returns to page one.
type DisplayAllRequested struct{}

// PageChanged jumps to Page, which must lie in 1..TotalPages.
type PageChanged struct {
	Page int
}

// RetryRequested re-issues the fetch after a failure.
type RetryRequested struct{}

func (FetchStarted) Name() string        { return IntentFetchStarted }
func (FetchSucceeded) Name() string      { return IntentFetchSucceeded }
func (FetchFailed) Name() string         { return IntentFetchFailed }
func (SearchQueryChanged) Name() string  { return IntentSearchQueryChanged }
func (SearchSubmitted) Name() string     { return IntentSearchSubmitted }
func (DisplayAllRequested) Name() string { return IntentDisplayAll }
func (PageChanged) Name() string         { return IntentPageChanged }
func (RetryRequested) Name() string      { return IntentRetry }

// ParseIntent builds a user intent from its wire name. Fetch completion
// intents are internal and cannot be parsed.
func ParseIntent(name, text string, page int) (Intent, error) {
	switch name {
	case IntentSearchQueryChanged:
		return SearchQueryChanged{Text: text}, nil
	case IntentSearchSubmitted:
		return SearchSubmitted{}, nil
	case IntentDisplayAll:
		return DisplayAllRequested{}, nil
	case IntentPageChanged:
		return PageChanged{Page: page}, nil
	case IntentRetry:
		return RetryRequested{}, nil
	case IntentFetchStarted:
		return FetchStarted{}, nil
	default:
		return nil, domain.NewValidationErrorWithValue("type", "unknown intent", name)
	}
}
