// Package md2slides converts Markdown documents into slide decks and
// full-document PDFs using headless Chrome.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := md2slides.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, md2slides.Input{
//	    Markdown: "# Review\n\n## Scope\n\n- First point",
//	    Name:     "review",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("review.pdf", result.PDF, 0644)
//
// The result carries every stage output: the parsed document, the laid out
// pages, the HTML and the PDF bytes. Use Input.HTMLOnly to skip printing.
//
// # Conversion Pipeline
//
//  1. Parsing into a title, sections and items (level-1 and level-2 headings)
//  2. Diagram rendering: fenced mermaid blocks are fetched once per content
//     key and cached on disk
//  3. Layout: items are paginated and shrunk to fit a 16:9 canvas, diagrams
//     are placed by aspect ratio
//  4. HTML via the deck template (slides) or Goldmark (document)
//  5. PDF rendering via headless Chrome (go-rod)
//
// A diagram that fails to render is skipped and reported in
// ConvertResult.Diagrams; it never fails the conversion.
//
// # Configuration
//
//	conv, err := md2slides.NewConverter(
//	    md2slides.WithTarget(md2slides.TargetDocument),
//	    md2slides.WithTimeout(2 * time.Minute),
//	    md2slides.WithDiagrams(md2slides.DiagramSettings{
//	        Endpoint: "https://mermaid.ink",
//	        Workers:  4,
//	    }),
//	)
//
// # Parallel Processing
//
// ConverterPool manages several browser instances sharing one diagram
// renderer, so a diagram used by many files is downloaded once:
//
//	pool, err := md2slides.NewConverterPool(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Release(conv)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package md2slides
