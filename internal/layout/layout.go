// Package layout turns parsed sections into fixed-size pages: text items are
// paginated against a line budget and resolved diagrams are placed on the
// canvas according to their aspect ratio.
//
// Layout never mutates the document it reads.
package layout

import (
	"log/slog"

	"github.com/alnah/go-md2slides/internal/document"
)

// Page is one output page of a section.
type Page struct {
	Title    string
	Items    []document.Item
	Diagrams []Placement
	Index    int // 0-based position within the section
	Total    int // pages in the section
}

// Layout lays out whole sections and documents.
type Layout struct {
	Canvas Canvas
	Fitter Fitter
	Logger *slog.Logger // default: slog.Default()
}

// New returns a Layout with the default canvas and fitter.
func New() *Layout {
	return &Layout{Canvas: DefaultCanvas(), Fitter: DefaultFitter()}
}

func (l *Layout) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Section returns the text pages of sec followed by one page per resolved
// diagram. Failed or unresolved diagrams are skipped; an empty section
// yields no pages.
func (l *Layout) Section(sec document.Section) []Page {
	if sec.Empty() {
		return nil
	}

	pages := l.Fitter.Fit(sec.Title, sec.Items)
	if kept := countItems(pages); kept < len(sec.Items) {
		l.logger().Debug("section reduced", "section", sec.Title, "items", len(sec.Items), "kept", kept)
	}

	for _, ref := range sec.Diagrams {
		if !ref.Resolved() {
			l.logger().Debug("skipping unresolved diagram", "id", ref.ID, "error", ref.Err)
			continue
		}
		p := l.Canvas.PlaceFile(ref.ImagePath)
		p.Ref = ref
		if p.Fallback {
			l.logger().Warn("using fallback diagram placement", "id", ref.ID, "path", ref.ImagePath)
		}
		pages = append(pages, Page{Title: sec.Title, Diagrams: []Placement{p}})
	}

	number(pages)
	return pages
}

// Document lays out every section in order.
func (l *Layout) Document(doc *document.Document) []Page {
	var pages []Page
	for _, sec := range doc.Sections {
		pages = append(pages, l.Section(sec)...)
	}
	return pages
}

func countItems(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Items)
	}
	return n
}
