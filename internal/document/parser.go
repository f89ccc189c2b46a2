package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/goccy/go-yaml"

	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/inline"
)

// ErrInvalidFrontMatter is returned when a front matter block cannot be decoded.
var ErrInvalidFrontMatter = errors.New("invalid front matter")

var numberedPattern = regexp.MustCompile(`^(\d+\.)\s+(.*)$`)

// byteOrderMark is dropped from the start of input.
const byteOrderMark = "\ufeff"

// errNotMapping marks a "---" block that is not YAML front matter.
var errNotMapping = errors.New("front matter is not a mapping")

type frontMatter struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

// Parser turns Markdown into a Document.
// The zero value keeps every paragraph and recognizes "mermaid" fences.
type Parser struct {
	// MaxParagraphLength drops paragraphs whose rune length reaches it (0 disables).
	MaxParagraphLength int

	// DiagramTag is the fence info string marking diagram blocks (default: "mermaid").
	DiagramTag string
}

// Name derives a document name from a file path: base name without extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse builds a Document from Markdown text.
// Diagram IDs use name and the 0-based line of the opening fence in text.
func (p Parser) Parse(name, text string) (*Document, error) {
	text = cleanText(text)

	meta, body, offset, err := splitFrontMatter(text)
	if err != nil {
		return nil, err
	}

	b := &builder{
		parser: p,
		name:   name,
		doc:    &Document{Name: name, Title: meta.Title, Subtitle: meta.Subtitle},
		cur:    Section{Title: name},
		lead:   true,
	}
	if b.parser.DiagramTag == "" {
		b.parser.DiagramTag = diagram.DefaultTag
	}

	for i, line := range strings.Split(body, "\n") {
		b.line(offset+i, line)
	}
	b.finish()

	return b.doc, nil
}

// StripFrontMatter removes a leading YAML front matter block from text.
func StripFrontMatter(text string) (string, error) {
	_, body, _, err := splitFrontMatter(cleanText(text))
	return body, err
}

// cleanText drops a leading byte order mark and normalizes line endings.
func cleanText(text string) string {
	return strings.ReplaceAll(strings.TrimPrefix(text, byteOrderMark), "\r\n", "\n")
}

// splitFrontMatter returns the decoded front matter, the remaining body and
// the number of lines consumed before it. A leading "---" block that is not
// a YAML mapping is left in the body, where its rules are discarded.
func splitFrontMatter(text string) (frontMatter, string, int, error) {
	var meta frontMatter
	if !strings.HasPrefix(text, "---\n") || !strings.Contains(text[4:], "\n---") {
		return meta, text, 0, nil
	}

	format := frontmatter.NewFormat("---", "---", func(data []byte, v any) error {
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil || m == nil {
			return errNotMapping
		}
		return yaml.Unmarshal(data, v)
	})

	rest, err := frontmatter.Parse(strings.NewReader(text), &meta, format)
	if errors.Is(err, errNotMapping) {
		return frontMatter{}, text, 0, nil
	}
	if err != nil {
		return meta, "", 0, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
	}

	body := string(rest)
	if !strings.HasSuffix(text, body) {
		return meta, body, strings.Count(text, "\n") - strings.Count(body, "\n"), nil
	}
	return meta, body, strings.Count(text[:len(text)-len(body)], "\n"), nil
}

type builder struct {
	parser Parser
	name   string
	doc    *Document
	cur    Section
	lead   bool // cur is the synthetic leading section

	fence      string // open fence characters, "" outside a fenced block
	inDiagram  bool   // the open fence is a diagram block
	fenceLine  int
	fenceLines []string
}

func (b *builder) line(n int, raw string) {
	line := strings.TrimSpace(raw)

	if b.fence != "" {
		if diagram.ClosesFence(line, b.fence) {
			b.closeFence()
			return
		}
		if b.inDiagram {
			b.fenceLines = append(b.fenceLines, strings.TrimRight(raw, " \t"))
		}
		return
	}

	if fence, ok := diagram.OpensFence(line, b.parser.DiagramTag); ok {
		b.fence, b.inDiagram, b.fenceLine, b.fenceLines = fence, true, n, nil
		return
	}
	if fence, ok := otherFence(line); ok {
		b.fence, b.inDiagram = fence, false
		return
	}

	switch {
	case line == "":
	case strings.HasPrefix(line, "# "):
		if b.doc.Title == "" {
			b.doc.Title = strings.TrimSpace(line[2:])
		}
	case strings.HasPrefix(line, "## "):
		b.flush()
		b.cur = Section{Title: strings.TrimSpace(line[3:])}
	case isSubheading(line):
		text := strings.TrimSpace(strings.TrimLeft(line, "#"))
		b.add(Item{Kind: Subheading, Marker: SubheadingMarker, Runs: inline.Format(text)})
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		b.add(Item{Kind: Bullet, Marker: BulletMarker, Runs: inline.Format(strings.TrimSpace(line[2:]))})
	case numberedPattern.MatchString(line):
		m := numberedPattern.FindStringSubmatch(line)
		b.add(Item{Kind: Numbered, Marker: m[1], Runs: inline.Format(m[2])})
	case strings.HasPrefix(line, "|"), strings.Contains(line, "---"):
	default:
		if limit := b.parser.MaxParagraphLength; limit > 0 && utf8.RuneCountInString(line) >= limit {
			return
		}
		b.add(Item{Kind: Paragraph, Runs: inline.Format(line)})
	}
}

func (b *builder) add(item Item) {
	b.cur.Items = append(b.cur.Items, item)
}

func (b *builder) closeFence() {
	if b.inDiagram {
		src := strings.Join(b.fenceLines, "\n")
		b.cur.Diagrams = append(b.cur.Diagrams, diagram.NewRef(diagram.RefID(b.name, b.fenceLine), src))
	}
	b.fence, b.inDiagram, b.fenceLines = "", false, nil
}

// flush appends the current section unless it is an empty leading section.
func (b *builder) flush() {
	if !b.lead || !b.cur.Empty() {
		b.doc.Sections = append(b.doc.Sections, b.cur)
	}
	b.lead = false
}

func (b *builder) finish() {
	if b.fence != "" {
		b.closeFence()
	}
	b.flush()
}

// isSubheading matches "### " and deeper headings.
func isSubheading(line string) bool {
	level := len(line) - len(strings.TrimLeft(line, "#"))
	return level >= 3 && level <= 6 && len(line) > level && line[level] == ' '
}

// otherFence reports whether line opens a fenced block that is not a diagram.
func otherFence(line string) (string, bool) {
	for _, fence := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, fence) {
			return fence, true
		}
	}
	return "", false
}
