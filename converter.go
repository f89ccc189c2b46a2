package md2slides

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alnah/go-md2slides/internal/assets"
	"github.com/alnah/go-md2slides/internal/diagram"
	"github.com/alnah/go-md2slides/internal/document"
	"github.com/alnah/go-md2slides/internal/fileutil"
	"github.com/alnah/go-md2slides/internal/layout"
	"github.com/alnah/go-md2slides/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.DocumentPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
	_ diagramResolver               = (*diagram.Renderer)(nil)
)

// diagramResolver resolves diagram references in place.
type diagramResolver interface {
	ResolveAll(ctx context.Context, refs []*diagram.Ref) diagram.Report
}

// Converter orchestrates the Markdown to slides/document pipeline:
// parse, render diagrams, lay out, build HTML, inject CSS and print.
// Create with NewConverter, use Convert for conversion, and Close when done.
// A Converter is not safe for concurrent use; see ConverterPool.
type Converter struct {
	cfg           converterConfig
	logger        *slog.Logger
	assetLoader   assets.AssetLoader
	parser        document.Parser
	resolver      diagramResolver
	cacheDir      string
	layout        *layout.Layout
	deck          *pipeline.SlideDeck
	htmlConverter pipeline.HTMLConverter
	cssInjector   pipeline.CSSInjector
	pdfConverter  pdfConverter
	style         string
}

// NewConverter creates a Converter.
// Returns error if asset loading, template parsing or diagram cache setup fails.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := newConfig(opts...)
	return newConverter(cfg)
}

// newConfig applies opts over the defaults.
func newConfig(opts ...Option) converterConfig {
	cfg := converterConfig{target: TargetSlides, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

func newConverter(cfg converterConfig) (*Converter, error) {
	target, err := ParseTarget(string(cfg.target))
	if err != nil {
		return nil, err
	}
	cfg.target = target

	c := &Converter{
		cfg:         cfg,
		logger:      cfg.logger,
		assetLoader: assets.NewEmbeddedLoader(),
		parser: document.Parser{
			MaxParagraphLength: cfg.maxParagraphLength,
			DiagramTag:         cfg.diagramTag,
		},
		layout:      newLayout(cfg.layout, cfg.logger),
		cssInjector: &pipeline.CSSInjection{},
	}

	if cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		c.assetLoader = resolver
	}

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	tmpl, err := c.assetLoader.LoadTemplate(assets.DeckTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading deck template: %w", err)
	}
	if c.deck, err = pipeline.NewSlideDeck(tmpl); err != nil {
		return nil, err
	}

	var gmOpts []pipeline.GoldmarkOption
	if cfg.highlightStyle != "" {
		gmOpts = append(gmOpts, pipeline.WithHighlightStyle(cfg.highlightStyle))
	}
	c.htmlConverter = pipeline.NewGoldmarkConverter(gmOpts...)

	c.cacheDir = cfg.diagram.CacheDir
	if c.cacheDir == "" {
		c.cacheDir = defaultCacheDir()
	}
	c.resolver = cfg.resolver
	if c.resolver == nil {
		if c.resolver, err = newDiagramRenderer(cfg.diagram, c.cacheDir, cfg.logger); err != nil {
			return nil, err
		}
	}

	c.pdfConverter = newRodConverter(cfg.timeout)

	return c, nil
}

// newLayout builds the slide layout engine from settings.
func newLayout(s LayoutSettings, logger *slog.Logger) *layout.Layout {
	l := layout.New()
	l.Logger = logger
	l.Fitter.CharsPerLine = s.CharsPerLine
	l.Fitter.MaxLines = s.MaxLines
	l.Fitter.MaxItems = s.MaxItems
	l.Fitter.MaxPages = s.MaxPages
	l.Fitter.MinTruncate = s.MinTruncate
	if s.DisplayWidth {
		l.Fitter.Measure = layout.MeasureDisplayWidth
	}
	return l
}

// newDiagramRenderer creates the diagram renderer with its on-disk cache.
func newDiagramRenderer(s DiagramSettings, cacheDir string, logger *slog.Logger) (*diagram.Renderer, error) {
	imageType := s.ImageType
	if imageType == "jpg" {
		imageType = "jpeg"
	}
	store, err := diagram.NewStore(cacheDir, imageType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramCache, err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	fetcher := diagram.NewHTTPFetcher(s.Endpoint, imageType, timeout)
	fetcher.Retries = s.Retries

	workers := s.Workers
	if workers <= 0 {
		workers = defaultDiagramWorkers
	}

	opts := diagram.DefaultRenderOptions()
	if s.Theme != "" {
		opts.Theme = s.Theme
	}

	return diagram.NewRenderer(diagram.Config{
		Store:   store,
		Fetcher: fetcher,
		Options: opts,
		Workers: workers,
		Logger:  logger,
	})
}

// defaultCacheDir returns <user cache dir>/go-md2slides/diagrams, or a
// directory under the system temp dir when no user cache dir exists.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, cacheDirName, "diagrams")
}

// Convert runs the full pipeline and returns the result containing HTML and PDF.
// Diagrams that fail to render are skipped and reported in the result.
// If input.HTMLOnly is true, PDF generation is skipped.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}

	name := documentName(input)
	doc, err := c.parser.Parse(name, input.Markdown)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	res := &ConvertResult{Document: doc}
	res.Diagrams = c.resolver.ResolveAll(ctx, doc.Diagrams())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ref := range res.Diagrams.Failures {
		c.logger.Warn("diagram skipped", "document", name, "id", ref.ID, "error", ref.Err)
	}

	var htmlContent string
	var page *pdfOptions
	switch c.cfg.target {
	case TargetDocument:
		htmlContent, err = c.documentHTML(ctx, doc, input)
		page = documentPage()
	default:
		res.Pages = c.layout.Document(doc)
		htmlContent, err = c.deck.Render(ctx, pipeline.BuildDeck(doc, res.Pages, c.layout.Canvas))
		page = slidesPage(c.layout.Canvas.Width, c.layout.Canvas.Height)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	htmlContent = c.cssInjector.InjectCSS(ctx, htmlContent, c.style, input.CSS)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.HTML = []byte(htmlContent)
	if input.HTMLOnly {
		return res, nil
	}

	pdfBytes, err := c.pdfConverter.ToPDF(ctx, htmlContent, page)
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	res.PDF = pdfBytes

	c.logger.Debug("converted", "document", name, "target", c.cfg.target,
		"pages", len(res.Pages), "diagrams", res.Diagrams.Total, "failed", res.Diagrams.Failed)
	return res, nil
}

// documentHTML renders the full-document target.
func (c *Converter) documentHTML(ctx context.Context, doc *document.Document, input Input) (string, error) {
	pre := pipeline.NewDocumentPreprocessor(doc, c.parser.DiagramTag)
	md, err := pre.PreprocessMarkdown(ctx, input.Markdown)
	if err != nil {
		return "", err
	}

	title := doc.Title
	if title == "" {
		title = doc.Name
	}
	htmlContent, err := c.htmlConverter.ToHTML(ctx, title, md)
	if err != nil {
		return "", err
	}

	return pipeline.RewritePaths(htmlContent, sourceDir(input), c.cacheDir)
}

// documentName picks the name diagram IDs are derived from.
func documentName(input Input) string {
	switch {
	case input.Name != "":
		return input.Name
	case input.Path != "":
		return document.Name(input.Path)
	default:
		return "document"
	}
}

// sourceDir returns the directory relative image paths resolve against.
func sourceDir(input Input) string {
	if input.SourceDir != "" || input.Path == "" {
		return input.SourceDir
	}
	abs, err := filepath.Abs(input.Path)
	if err != nil {
		return ""
	}
	return filepath.Dir(abs)
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

// resolveStyle loads the stylesheet: a CSS file path, a named style from
// the asset loader, or the target's built-in style.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.SlidesStyle
		if c.cfg.target == TargetDocument {
			input = assets.DocumentStyle
		}
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.style = string(content)
		return nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrStyleNotFound, input, err)
	}
	c.style = css
	return nil
}
