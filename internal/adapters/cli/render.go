package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-browser/internal/app"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorError   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}
)

// styles are bound to one renderer so colors follow the output writer,
// not the process's stdout.
type styles struct {
	header  lipgloss.Style
	quote   lipgloss.Style
	author  lipgloss.Style
	dim     lipgloss.Style
	current lipgloss.Style
	err     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		header:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		quote:   r.NewStyle().PaddingLeft(2),
		author:  r.NewStyle().PaddingLeft(4).Foreground(colorDim).Italic(true),
		dim:     r.NewStyle().Foreground(colorDim),
		current: r.NewStyle().Bold(true).Foreground(colorAccent),
		err:     r.NewStyle().Bold(true).Foreground(colorError),
	}
}

// Render writes v the way the list command shows it: a header, the quotes of
// the current page or the empty state, and the page window.
func Render(w io.Writer, v app.View) error {
	s := newStyles(w)

	var b strings.Builder

	switch v.Status {
	case app.StatusLoading:
		b.WriteString(s.dim.Render("loading quotes..."))
		b.WriteString("\n")

	case app.StatusFailed:
		b.WriteString(s.err.Render("failed to load quotes: " + v.Error))
		b.WriteString("\n")

	case app.StatusReady:
		renderReady(&b, s, v)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderReady(b *strings.Builder, s styles, v app.View) {
	header := fmt.Sprintf("Quotes (%d)", v.TotalQuotes)
	if strings.TrimSpace(v.Query) != "" {
		header = fmt.Sprintf("Quotes matching %q (%d of %d)", v.Query, len(v.FilteredQuotes), v.TotalQuotes)
	}

	b.WriteString(s.header.Render(header))
	b.WriteString("\n\n")

	if msg := v.EmptyMessage(); msg != "" {
		b.WriteString(s.dim.Render(msg))
		b.WriteString("\n")

		return
	}

	for _, q := range v.PageQuotes {
		b.WriteString(s.quote.Render(fmt.Sprintf("%q", q.Text)))
		b.WriteString("\n")
		b.WriteString(s.author.Render("- " + q.Author))
		b.WriteString("\n")
	}

	if v.TotalPages > 0 {
		b.WriteString("\n")
		b.WriteString(renderWindow(s, v))
		b.WriteString("\n")
	}
}

// renderWindow renders the pagination control, e.g. "< 1 ... 4 [5] 6 ... 12 >".
// An arrow is only shown when there is a page in its direction.
func renderWindow(s styles, v app.View) string {
	parts := make([]string, 0, len(v.Window)+2)

	if v.HasPrevious {
		parts = append(parts, "<")
	}

	for _, link := range v.Window {
		switch {
		case link.Ellipsis:
			parts = append(parts, s.dim.Render(link.String()))
		case link.Page == v.CurrentPage:
			parts = append(parts, s.current.Render("["+link.String()+"]"))
		default:
			parts = append(parts, link.String())
		}
	}

	if v.HasNext {
		parts = append(parts, ">")
	}

	return strings.Join(parts, " ")
}
