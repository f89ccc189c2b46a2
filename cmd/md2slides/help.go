package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2slides <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to slide decks or documents (PDF).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>          Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>          Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>            Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>            PDF generation timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --target <s>             Output target: slides, document")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --diagram-url <url>      Render service URL (default: https://mermaid.ink)")
	fmt.Fprintln(w, "      --diagram-cache <dir>    Cache directory shared across runs")
	fmt.Fprintln(w, "      --diagram-type <s>       Image type: png, jpeg, webp")
	fmt.Fprintln(w, "      --diagram-theme <s>      Renderer theme")
	fmt.Fprintln(w, "      --diagram-workers <n>    Concurrent renders per file")
	fmt.Fprintln(w, "      --diagram-retries <n>    Retries for transient failures")
	fmt.Fprintln(w, "      --diagram-timeout <d>    Render request timeout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "      --max-paragraph <n>      Drop slide paragraphs of n characters or more")
	fmt.Fprintln(w, "      --chars-per-line <n>     Characters per slide line")
	fmt.Fprintln(w, "      --max-lines <n>          Lines per slide page")
	fmt.Fprintln(w, "      --display-width          Count wide characters as two columns")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "  -s, --style <name|path>      CSS style name or file")
	fmt.Fprintln(w, "      --css <path>             Extra CSS file")
	fmt.Fprintln(w, "      --asset-path <dir>       Custom asset directory")
	fmt.Fprintln(w, "      --highlight <s>          Code highlight style (document target)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --html                   Also write the HTML")
	fmt.Fprintln(w, "      --html-only              Write the HTML only, skip PDF")
	fmt.Fprintln(w, "  -q, --quiet                  Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                Show detailed progress")
	fmt.Fprintln(w, "      --version                Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MD2SLIDES_CONFIG, MD2SLIDES_TARGET, MD2SLIDES_STYLE, MD2SLIDES_TIMEOUT,")
	fmt.Fprintln(w, "  MD2SLIDES_INPUT_DIR, MD2SLIDES_OUTPUT_DIR, MD2SLIDES_DIAGRAM_URL,")
	fmt.Fprintln(w, "  MD2SLIDES_DIAGRAM_CACHE, MD2SLIDES_WORKERS")
}
