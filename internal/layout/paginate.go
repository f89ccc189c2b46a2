package layout

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/alnah/go-md2slides/internal/document"
)

// Default pagination parameters.
const (
	DefaultCharsPerLine = 60
	DefaultMaxLines     = 12
)

// MeasureRunes counts characters.
func MeasureRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// MeasureDisplayWidth counts terminal cells, so East Asian wide characters
// count twice.
func MeasureDisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Estimator guesses how many wrapped lines an item occupies.
type Estimator struct {
	CharsPerLine int
	Measure      func(string) int // default: MeasureRunes
}

// Lines returns ceil(measure(item)/CharsPerLine), at least 1.
// The marker is counted as part of the item.
func (e Estimator) Lines(item document.Item) int {
	measure := e.Measure
	if measure == nil {
		measure = MeasureRunes
	}
	perLine := e.CharsPerLine
	if perLine <= 0 {
		perLine = DefaultCharsPerLine
	}

	n := measure(item.Display())
	lines := (n + perLine - 1) / perLine
	return max(lines, 1)
}

// Total sums Lines over items.
func (e Estimator) Total(items []document.Item) int {
	total := 0
	for _, item := range items {
		total += e.Lines(item)
	}
	return total
}

// Paginator splits items into line-budgeted pages.
type Paginator struct {
	Estimator
	MaxLines int
}

func (p Paginator) maxLines() int {
	if p.MaxLines <= 0 {
		return DefaultMaxLines
	}
	return p.MaxLines
}

// Paginate accumulates items into pages of at most MaxLines estimated lines.
// A page is closed when the next item would overflow it; an item larger than
// a whole page gets a page of its own. No page is ever empty.
// Index and Total are set relative to the returned slice.
func (p Paginator) Paginate(title string, items []document.Item) []Page {
	limit := p.maxLines()

	var pages []Page
	var cur []document.Item
	lines := 0
	for _, item := range items {
		n := p.Lines(item)
		if lines+n > limit && len(cur) > 0 {
			pages = append(pages, Page{Title: title, Items: cur})
			cur, lines = nil, 0
		}
		cur = append(cur, item)
		lines += n
	}
	if len(cur) > 0 {
		pages = append(pages, Page{Title: title, Items: cur})
	}

	number(pages)
	return pages
}

// PageLines returns the estimated line count of a page's items.
func (p Paginator) PageLines(page Page) int {
	return p.Total(page.Items)
}

func number(pages []Page) {
	for i := range pages {
		pages[i].Index = i
		pages[i].Total = len(pages)
	}
}
