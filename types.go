package md2slides

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/document"
	"github.com/alnah/go-md2slides/internal/layout"
)

// Target selects the kind of output produced from a document.
type Target string

// Output targets.
const (
	TargetSlides   Target = "slides"   // one fixed-size page per slide
	TargetDocument Target = "document" // full Markdown document on A4 pages
)

// ParseTarget converts a case-insensitive name into a Target.
// An empty name selects TargetSlides.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "", string(TargetSlides):
		return TargetSlides, nil
	case string(TargetDocument):
		return TargetDocument, nil
	}
	return "", fmt.Errorf("%w: %q (must be slides or document)", ErrInvalidTarget, s)
}

// Input contains conversion parameters.
type Input struct {
	Markdown  string // Markdown content (required)
	Name      string // document name used for diagram IDs (default: derived from Path)
	Path      string // source file path (optional)
	SourceDir string // base for relative image paths (default: directory of Path)
	CSS       string // extra CSS applied after the style (optional)
	HTMLOnly  bool   // skip PDF generation
}

// ConvertResult holds every stage output of a conversion.
type ConvertResult struct {
	Document *document.Document
	Pages    []layout.Page // slide pages; nil for the document target
	HTML     []byte
	PDF      []byte // nil when Input.HTMLOnly is set
	Diagrams diagram.Report
}

// LayoutSettings tunes slide pagination. Zero values select the defaults.
type LayoutSettings struct {
	CharsPerLine int
	MaxLines     int
	MaxItems     int
	MaxPages     int
	MinTruncate  int
	DisplayWidth bool // count wide runes as two columns
}

// DiagramSettings configures diagram rendering. Zero values select the defaults.
type DiagramSettings struct {
	Endpoint  string        // render service base URL (default: https://mermaid.ink)
	ImageType string        // png, jpeg or webp (default: png)
	Theme     string        // renderer theme (default: "default")
	CacheDir  string        // on-disk cache (default: user cache dir)
	Workers   int           // concurrent renders per document (default: 4)
	Retries   int           // extra attempts on transient failures
	Timeout   time.Duration // per request (default: 30s)
}

// Option configures a Converter.
type Option func(*converterConfig)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	target             Target
	timeout            time.Duration
	styleInput         string
	assetPath          string
	highlightStyle     string
	maxParagraphLength int
	diagramTag         string
	layout             LayoutSettings
	diagram            DiagramSettings
	logger             *slog.Logger

	// Shared by converters of one pool.
	resolver diagramResolver
}

// Defaults.
const (
	defaultTimeout        = 30 * time.Second
	defaultDiagramWorkers = 4
	cacheDirName          = "go-md2slides"
)

// WithTarget selects the output target.
func WithTarget(t Target) Option {
	return func(c *converterConfig) {
		c.target = t
	}
}

// WithTimeout sets the PDF generation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2slides: WithTimeout duration must be positive")
	}
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithStyle sets the stylesheet: a style name from the asset loader or a
// path to a CSS file. Empty selects the target's built-in style.
func WithStyle(nameOrPath string) Option {
	return func(c *converterConfig) {
		c.styleInput = nameOrPath
	}
}

// WithAssetPath overrides embedded styles and templates with files from dir.
// Missing files fall back to the embedded assets.
func WithAssetPath(dir string) Option {
	return func(c *converterConfig) {
		c.assetPath = dir
	}
}

// WithHighlightStyle selects the chroma style for code in the document target.
func WithHighlightStyle(name string) Option {
	return func(c *converterConfig) {
		c.highlightStyle = name
	}
}

// WithMaxParagraphLength drops slide paragraphs of n runes or more (0 keeps all).
func WithMaxParagraphLength(n int) Option {
	return func(c *converterConfig) {
		c.maxParagraphLength = n
	}
}

// WithDiagramTag sets the fence info string that marks diagram blocks.
func WithDiagramTag(tag string) Option {
	return func(c *converterConfig) {
		c.diagramTag = tag
	}
}

// WithLayout tunes slide pagination.
func WithLayout(s LayoutSettings) Option {
	return func(c *converterConfig) {
		c.layout = s
	}
}

// WithDiagrams configures diagram rendering.
func WithDiagrams(s DiagramSettings) Option {
	return func(c *converterConfig) {
		c.diagram = s
	}
}

// WithLogger sets the logger for conversion progress (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *converterConfig) {
		c.logger = l
	}
}
