package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"github.com/alnah/go-md2slides/internal/document"
	"github.com/alnah/go-md2slides/internal/inline"
	"github.com/alnah/go-md2slides/internal/layout"
)

// ErrDeckRender indicates the slide deck template failed to execute.
var ErrDeckRender = errors.New("slide deck rendering failed")

// Slide kinds, also used as CSS class suffixes by the deck template.
const (
	SlideTitle   = "title"
	SlideSection = "section"
	SlideContent = "content"
	SlideDiagram = "diagram"
)

// DeckData is the view model handed to the deck template.
type DeckData struct {
	Title  string
	Width  float64 // inches
	Height float64 // inches
	Slides []SlideView
}

// SlideView is one slide of the deck.
type SlideView struct {
	Kind       string
	Title      string
	Subtitle   string
	Breadcrumb string
	Items      []ItemView
	Images     []ImageView
	Page       int // 1-based
	Total      int
}

// ItemView is a content line with its marker and styled runs.
// HTML is the runs rendered as escaped inline markup.
type ItemView struct {
	Kind   string // paragraph, bullet, numbered, subheading
	Marker string
	Runs   []RunView
	HTML   template.HTML
}

// RunView is a styled piece of text; Style is inline.Style.String().
type RunView struct {
	Text  string
	Style string
}

// ImageView is a diagram placed on the canvas.
type ImageView struct {
	Src                 template.URL
	Alt                 string
	X, Y, Width, Height float64
	Fallback            bool
}

// BuildDeck assembles the deck view of a laid out document.
// The deck opens with a title slide; a section divider precedes the first
// page of every section whose title differs from the document name.
func BuildDeck(doc *document.Document, pages []layout.Page, canvas layout.Canvas) DeckData {
	title := doc.Title
	if title == "" {
		title = doc.Name
	}

	data := DeckData{Title: title, Width: canvas.Width, Height: canvas.Height}
	data.Slides = append(data.Slides, SlideView{Kind: SlideTitle, Title: title, Subtitle: doc.Subtitle})

	for _, p := range pages {
		if p.Index == 0 && p.Title != doc.Name {
			data.Slides = append(data.Slides, SlideView{Kind: SlideSection, Title: p.Title, Breadcrumb: doc.Name})
		}
		data.Slides = append(data.Slides, slideFor(doc.Name, p))
	}
	return data
}

func slideFor(breadcrumb string, p layout.Page) SlideView {
	s := SlideView{
		Kind:       SlideContent,
		Title:      p.Title,
		Breadcrumb: breadcrumb,
		Page:       p.Index + 1,
		Total:      p.Total,
	}
	if len(p.Diagrams) > 0 {
		s.Kind = SlideDiagram
	}

	for _, item := range p.Items {
		s.Items = append(s.Items, itemView(item))
	}
	for _, d := range p.Diagrams {
		s.Images = append(s.Images, ImageView{
			Src:      template.URL(pathToFileURL(d.Ref.ImagePath)), // #nosec G203 -- file URL built from the diagram cache path
			Alt:      d.Ref.ID,
			X:        d.Geometry.X,
			Y:        d.Geometry.Y,
			Width:    d.Geometry.Width,
			Height:   d.Geometry.Height,
			Fallback: d.Fallback,
		})
	}
	return s
}

func itemView(item document.Item) ItemView {
	v := ItemView{Kind: kindName(item.Kind), Marker: item.Marker, HTML: RunsHTML(item.Runs)}
	for _, r := range item.Runs {
		v.Runs = append(v.Runs, RunView{Text: r.Text, Style: r.Style.String()})
	}
	return v
}

func kindName(k document.Kind) string {
	switch k {
	case document.Bullet:
		return "bullet"
	case document.Numbered:
		return "numbered"
	case document.Subheading:
		return "subheading"
	default:
		return "paragraph"
	}
}

// SlideDeck renders DeckData to a standalone HTML document.
type SlideDeck struct {
	tmpl *template.Template
}

// NewSlideDeck parses the deck template.
func NewSlideDeck(tmplContent string) (*SlideDeck, error) {
	tmpl, err := template.New("deck").Funcs(template.FuncMap{
		"inches": inches,
	}).Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing deck template: %w", err)
	}
	return &SlideDeck{tmpl: tmpl}, nil
}

// Render executes the template.
func (d *SlideDeck) Render(ctx context.Context, data DeckData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeckRender, err)
	}
	return buf.String(), nil
}

// inches formats a length for CSS, e.g. "5.625in".
func inches(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', -1, 64) + "in") // #nosec G203 -- numeric value
}

// RunsHTML renders runs as inline HTML: strong, em and code elements.
func RunsHTML(runs []inline.Run) template.HTML {
	var buf bytes.Buffer
	for _, r := range runs {
		text := template.HTMLEscapeString(r.Text)
		switch r.Style {
		case inline.Bold:
			buf.WriteString("<strong>" + text + "</strong>")
		case inline.Italic:
			buf.WriteString("<em>" + text + "</em>")
		case inline.BoldItalic:
			buf.WriteString("<strong><em>" + text + "</em></strong>")
		case inline.Code:
			buf.WriteString("<code>" + text + "</code>")
		default:
			buf.WriteString(text)
		}
	}
	return template.HTML(buf.String()) // #nosec G203 -- text escaped above
}
