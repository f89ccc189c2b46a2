package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared by every invocation.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	version bool
}

// assetFlags holds style and asset flags.
type assetFlags struct {
	style     string // name or CSS file path
	css       string // extra CSS file applied after the style
	assetPath string // override asset directory
	highlight string // chroma style for the document target
}

// diagramFlags holds diagram renderer flags.
type diagramFlags struct {
	url       string
	cacheDir  string
	imageType string
	theme     string
	workers   int
	retries   int
	timeout   string
}

// layoutFlags holds slide layout flags.
type layoutFlags struct {
	maxParagraph int
	charsPerLine int
	maxLines     int
	displayWidth bool
}

// outputFlags holds output mode flags for debugging.
type outputFlags struct {
	html     bool // output HTML alongside PDF
	htmlOnly bool // output HTML only, skip PDF
}

// convertFlags holds all flags.
type convertFlags struct {
	common     commonFlags
	output     string
	workers    int
	timeout    string
	target     string
	assets     assetFlags
	diagram    diagramFlags
	layout     layoutFlags
	outputMode outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
	fs.BoolVar(&f.version, "version", false, "show version information")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVarP(&f.style, "style", "s", "", "CSS style name or file path")
	fs.StringVar(&f.css, "css", "", "extra CSS file applied after the style")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style (document target)")
}

// addDiagramFlags adds diagram renderer flags to a FlagSet.
func addDiagramFlags(fs *flag.FlagSet, f *diagramFlags) {
	fs.StringVar(&f.url, "diagram-url", "", "diagram render service URL")
	fs.StringVar(&f.cacheDir, "diagram-cache", "", "diagram cache directory")
	fs.StringVar(&f.imageType, "diagram-type", "", "diagram image type: png, jpeg, webp")
	fs.StringVar(&f.theme, "diagram-theme", "", "diagram theme")
	fs.IntVar(&f.workers, "diagram-workers", 0, "concurrent diagram renders per file")
	fs.IntVar(&f.retries, "diagram-retries", 0, "retries for transient render failures")
	fs.StringVar(&f.timeout, "diagram-timeout", "", "render request timeout (e.g., 30s)")
}

// addLayoutFlags adds slide layout flags to a FlagSet.
func addLayoutFlags(fs *flag.FlagSet, f *layoutFlags) {
	fs.IntVar(&f.maxParagraph, "max-paragraph", 0, "drop slide paragraphs of this many characters or more (0 = keep all)")
	fs.IntVar(&f.charsPerLine, "chars-per-line", 0, "characters per slide line")
	fs.IntVar(&f.maxLines, "max-lines", 0, "lines per slide page")
	fs.BoolVar(&f.displayWidth, "display-width", false, "count wide characters as two columns")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.html, "html", false, "output HTML alongside PDF")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "output HTML only, skip PDF")
}

// parseConvertFlags parses flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("md2slides", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.target, "target", "", "output target: slides, document")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addAssetFlags(fs, &f.assets)
	addDiagramFlags(fs, &f.diagram)
	addLayoutFlags(fs, &f.layout)
	addOutputFlags(fs, &f.outputMode)

	fs.Usage = func() { printUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
