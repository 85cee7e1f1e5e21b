// Package domain contains core business entities and rules.
package domain

// Quote represents a quotation with its author.
// Quotes are immutable once fetched; nothing in the module mutates one after
// the fetch collaborator produced it.
type Quote struct {
	// ID is the stable identifier assigned by the quote source.
	ID int

	// Text is the body of the quote.
	Text string

	// Author is who said or wrote the quote.
	Author string
}
