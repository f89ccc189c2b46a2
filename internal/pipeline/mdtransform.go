package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/document"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through goldmark unchanged and become <mark> tags afterwards,
// so raw HTML never has to be enabled.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// MarkdownPreprocessor prepares Markdown for the document target.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) (string, error)
}

// DocumentPreprocessor rewrites a source file into goldmark input:
// diagram fences become images (or a note when rendering failed), front
// matter is removed and blank lines are compressed.
type DocumentPreprocessor struct {
	// Name is the document name diagram IDs were derived from.
	Name string

	// Diagrams maps diagram IDs to their resolved references.
	Diagrams map[string]*diagram.Ref

	// Tag is the diagram fence tag (default: "mermaid").
	Tag string
}

// NewDocumentPreprocessor indexes doc's diagrams by ID.
func NewDocumentPreprocessor(doc *document.Document, tag string) *DocumentPreprocessor {
	refs := make(map[string]*diagram.Ref)
	for _, ref := range doc.Diagrams() {
		refs[ref.ID] = ref
	}
	return &DocumentPreprocessor{Name: doc.Name, Diagrams: refs, Tag: tag}
}

// PreprocessMarkdown applies all transformations in order.
// Diagram replacement runs on the raw text so fence line numbers match the
// IDs assigned by the parser.
func (p *DocumentPreprocessor) PreprocessMarkdown(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content = normalizeLineEndings(content)
	content = p.replaceDiagrams(content)

	content, err := document.StripFrontMatter(content)
	if err != nil {
		return "", err
	}

	content = convertHighlights(content)
	content = compressBlankLines(content)
	return content, nil
}

// replaceDiagrams swaps every diagram fence for its image reference.
// Fences without a known reference are left as code blocks.
func (p *DocumentPreprocessor) replaceDiagrams(content string) string {
	tag := p.Tag
	if tag == "" {
		tag = diagram.DefaultTag
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		fence, ok := diagram.OpensFence(lines[i], tag)
		if !ok {
			out = append(out, lines[i])
			continue
		}

		start := i
		end := len(lines) - 1
		for j := i + 1; j < len(lines); j++ {
			if diagram.ClosesFence(lines[j], fence) {
				end = j
				break
			}
		}

		ref, known := p.Diagrams[diagram.RefID(p.Name, start)]
		switch {
		case !known || (!ref.Resolved() && !ref.Failed()):
			out = append(out, lines[start:end+1]...)
		case ref.Failed():
			out = append(out, "", fmt.Sprintf("> Diagram %s could not be rendered: %v", ref.ID, ref.Err), "")
		default:
			out = append(out, "", fmt.Sprintf("![%s](<%s>)", ref.ID, ref.ImagePath), "")
		}
		i = end
	}

	return strings.Join(out, "\n")
}

func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to one.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertHighlights turns ==text== into placeholder markers.
func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags after
// goldmark has run.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}

// Compile-time interface check.
var _ MarkdownPreprocessor = (*DocumentPreprocessor)(nil)
