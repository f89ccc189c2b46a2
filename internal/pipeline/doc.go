// Package pipeline builds the HTML that the PDF renderer prints.
//
// Two builders share the CSS injection and path rewriting stages:
//   - Slides: laid out pages become a deck via an html/template (BuildDeck,
//     SlideDeck), one fixed-size page per slide.
//   - Document: the source Markdown has its diagram fences replaced by
//     rendered images (DocumentPreprocessor) and is converted by goldmark
//     with GFM, footnotes and syntax highlighting (GoldmarkConverter).
//
// Local image paths are rewritten to file:// URLs (RewritePaths) because the
// browser loads the HTML from a temporary file.
package pipeline
