package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used for fenced code.
const DefaultHighlightStyle = "github"

// htmlTemplate wraps goldmark's fragment output in a complete HTML5 document.
const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, title, content string) (string, error)
}

// GoldmarkConverter converts Markdown to HTML using goldmark.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// GoldmarkOption configures a GoldmarkConverter.
type GoldmarkOption func(*goldmarkConfig)

type goldmarkConfig struct {
	style     string
	hardWraps bool
}

// WithHighlightStyle selects the chroma style for code blocks.
// Unknown names fall back to DefaultHighlightStyle.
func WithHighlightStyle(name string) GoldmarkOption {
	return func(c *goldmarkConfig) {
		if _, ok := styles.Registry[name]; ok {
			c.style = name
		}
	}
}

// WithHardWraps renders single newlines as <br>.
func WithHardWraps(enabled bool) GoldmarkOption {
	return func(c *goldmarkConfig) {
		c.hardWraps = enabled
	}
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, footnotes and
// inline-styled syntax highlighting.
func NewGoldmarkConverter(opts ...GoldmarkOption) *GoldmarkConverter {
	cfg := goldmarkConfig{style: DefaultHighlightStyle, hardWraps: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	rendererOpts := []goldmark.Option{}
	htmlOpts := []renderer.Option{gmhtml.WithXHTML()}
	if cfg.hardWraps {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}
	rendererOpts = append(rendererOpts,
		goldmark.WithExtensions(
			extension.GFM,      // tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.style),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Raw HTML stays disabled; highlights use placeholders instead.
		goldmark.WithRendererOptions(htmlOpts...),
	)

	return &GoldmarkConverter{md: goldmark.New(rendererOpts...)}
}

// ToHTML converts Markdown content to a standalone HTML5 document.
// goldmark has no context support, so conversion runs in a goroutine and
// the caller returns early on cancellation.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, title, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		body := ConvertMarkPlaceholders(buf.String())
		done <- result{html: fmt.Sprintf(htmlTemplate, html.EscapeString(title), body)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// Compile-time interface check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)
