package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-md2slides/internal/document"
	"github.com/alnah/go-md2slides/internal/inline"
)

// Default content reduction parameters.
const (
	DefaultMaxItems    = 10
	DefaultMaxPages    = 3
	DefaultMinTruncate = 40
)

// Ellipsis is appended to truncated items.
const Ellipsis = "…"

// truncateStep shrinks the truncation length by 15% per attempt.
const truncateStep = 0.85

// Reduce selects at most n items, preferring subheadings.
// If there are n or more subheadings, the first n of them are returned.
// Otherwise every subheading is kept and the remaining slots are filled with
// other items in source order. The result keeps source order.
func Reduce(items []document.Item, n int) []document.Item {
	if n <= 0 {
		return nil
	}
	if len(items) <= n {
		return items
	}

	subheadings := 0
	for _, item := range items {
		if item.Kind == document.Subheading {
			subheadings++
		}
	}

	out := make([]document.Item, 0, n)
	if subheadings >= n {
		for _, item := range items {
			if item.Kind == document.Subheading && len(out) < n {
				out = append(out, item)
			}
		}
		return out
	}

	others := n - subheadings
	for _, item := range items {
		switch {
		case item.Kind == document.Subheading:
			out = append(out, item)
		case others > 0:
			out = append(out, item)
			others--
		}
	}
	return out
}

// Fitter keeps a section within a page budget.
type Fitter struct {
	Paginator
	MaxItems    int // items kept by Reduce when the budget is exceeded
	MaxPages    int // pages allowed per section
	MinTruncate int // shortest length a single item is truncated to, in runes
}

// DefaultFitter returns a Fitter with the default parameters.
func DefaultFitter() Fitter {
	return Fitter{
		Paginator: Paginator{
			Estimator: Estimator{CharsPerLine: DefaultCharsPerLine},
			MaxLines:  DefaultMaxLines,
		},
		MaxItems:    DefaultMaxItems,
		MaxPages:    DefaultMaxPages,
		MinTruncate: DefaultMinTruncate,
	}
}

func (f Fitter) maxPages() int {
	if f.MaxPages <= 0 {
		return DefaultMaxPages
	}
	return f.MaxPages
}

func (f Fitter) maxItems() int {
	if f.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return f.MaxItems
}

func (f Fitter) minTruncate() int {
	if f.MinTruncate <= 0 {
		return DefaultMinTruncate
	}
	return f.MinTruncate
}

// fits reports whether items paginate within the page budget and their
// estimated lines within MaxPages * MaxLines.
func (f Fitter) fits(items []document.Item) bool {
	if len(f.Paginate("", items)) > f.maxPages() {
		return false
	}
	return f.Total(items) <= f.maxPages()*f.maxLines()
}

// Fit paginates items, reducing them first if they would exceed MaxPages.
// Reduction keeps at most MaxItems items, then drops the last non-subheading
// item until none is left, then the last subheading (never the final item),
// then truncates a single remaining item down to MinTruncate runes. The result
// is empty only when items is empty.
func (f Fitter) Fit(title string, items []document.Item) []Page {
	if len(items) == 0 {
		return nil
	}
	if f.fits(items) {
		return f.Paginate(title, items)
	}

	kept := Reduce(items, f.maxItems())
	for len(kept) > 1 && !f.fits(kept) {
		kept = dropTail(kept)
	}

	if len(kept) == 1 && !f.fits(kept) {
		orig := kept[0]
		floor := f.minTruncate()
		limit := utf8.RuneCountInString(orig.Text())
		for limit > floor && !f.fits(kept) {
			limit = max(floor, int(float64(limit)*truncateStep))
			kept = []document.Item{Truncate(orig, limit)}
		}
	}

	return f.Paginate(title, kept)
}

// dropTail removes the last item that is not a subheading, or the last item
// when only subheadings remain. The input slice is not modified.
func dropTail(items []document.Item) []document.Item {
	i := len(items) - 1
	for j := len(items) - 1; j >= 0; j-- {
		if items[j].Kind != document.Subheading {
			i = j
			break
		}
	}
	out := make([]document.Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// Truncate shortens the item's text to n runes and appends Ellipsis.
// Run styles are preserved; items already within n runes are returned as is.
func Truncate(item document.Item, n int) document.Item {
	if utf8.RuneCountInString(item.Text()) <= n {
		return item
	}

	runs := make([]inline.Run, 0, len(item.Runs))
	left := n
	for _, r := range item.Runs {
		if left <= 0 {
			break
		}
		size := utf8.RuneCountInString(r.Text)
		if size <= left {
			runs = append(runs, r)
			left -= size
			continue
		}
		runs = append(runs, inline.Run{Text: string([]rune(r.Text)[:left]), Style: r.Style})
		left = 0
	}

	if len(runs) > 0 {
		last := &runs[len(runs)-1]
		last.Text = strings.TrimRight(last.Text, " \t")
	}
	runs = append(runs, inline.Run{Text: Ellipsis, Style: inline.Plain})

	item.Runs = runs
	return item
}
