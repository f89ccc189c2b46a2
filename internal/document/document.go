// Package document builds the section/item tree that slides and pages are
// laid out from.
package document

import (
	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/inline"
)

// Kind classifies a content item by the source line it came from.
type Kind int

// Item kinds.
const (
	Paragraph Kind = iota
	Bullet
	Numbered
	Subheading
)

// Markers prepended to items when displayed.
const (
	BulletMarker     = "•"
	SubheadingMarker = "▸"
)

// Document is the parsed form of one Markdown file.
type Document struct {
	Name     string // file name without extension
	Title    string // level-1 heading or front matter title
	Subtitle string
	Sections []Section
}

// Diagrams returns every diagram reference in source order.
func (d *Document) Diagrams() []*diagram.Ref {
	var refs []*diagram.Ref
	for _, s := range d.Sections {
		refs = append(refs, s.Diagrams...)
	}
	return refs
}

// Section is a run of content under one level-2 heading.
type Section struct {
	Title    string
	Items    []Item
	Diagrams []*diagram.Ref
}

// Empty reports whether the section has neither items nor diagrams.
func (s Section) Empty() bool {
	return len(s.Items) == 0 && len(s.Diagrams) == 0
}

// Item is one logical line of content.
// Marker is "•", "▸", a numeral such as "3." or empty for paragraphs.
type Item struct {
	Kind   Kind
	Marker string
	Runs   []inline.Run
}

// Text returns the item text without its marker.
func (i Item) Text() string {
	return inline.Text(i.Runs)
}

// Display returns the text as shown on a slide, marker included.
func (i Item) Display() string {
	if i.Marker == "" {
		return i.Text()
	}
	return i.Marker + " " + i.Text()
}
