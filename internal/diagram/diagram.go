// Package diagram turns fenced Mermaid blocks into raster images.
//
// The pipeline has five stages:
//
//  1. Extraction of fenced blocks from raw Markdown (Extract)
//  2. Normalization of full-width punctuation and malformed arrows (Normalize)
//  3. Content-addressed cache keys over the normalized source (Key)
//  4. Deflate + URL-safe base64 encoding for the render endpoint (Encode)
//  5. Fetch-with-cache, single flight per key (Renderer)
//
// A failed diagram is recorded on its Ref and never aborts its siblings.
package diagram

import (
	"fmt"
	"strings"
)

// DefaultTag is the info string that marks a fenced block as a diagram.
const DefaultTag = "mermaid"

// Ref references one diagram block and its rendered image.
// ImagePath is set on success, Err on failure; exactly one of them is set
// once a Renderer has resolved the reference.
type Ref struct {
	ID        string // "<fileName>_<startLine>"
	Source    string // normalized source
	Key       string // content hash of Source
	ImagePath string
	Err       error
}

// NewRef normalizes source and computes its cache key.
func NewRef(id, source string) *Ref {
	normalized := Normalize(source)
	return &Ref{
		ID:     id,
		Source: normalized,
		Key:    Key(normalized),
	}
}

// Resolved reports whether the reference has a usable image.
func (r *Ref) Resolved() bool {
	return r.ImagePath != "" && r.Err == nil
}

// Failed reports whether rendering the reference failed.
func (r *Ref) Failed() bool {
	return r.Err != nil
}

// RefID builds the identity key shared by the parse and render passes.
func RefID(fileName string, startLine int) string {
	return fmt.Sprintf("%s_%d", fileName, startLine)
}

// Block is a fenced diagram block found in raw text.
type Block struct {
	ID        string
	StartLine int // 0-based line index of the opening fence
	EndLine   int // 0-based line index of the closing fence, or last line if unclosed
	Source    string
}

// Extract scans text for fenced blocks tagged with DefaultTag.
// A block left open at end of input runs to the last line.
func Extract(fileName, text string) []Block {
	return ExtractTagged(fileName, text, DefaultTag)
}

// ExtractTagged is Extract with a custom fence tag.
func ExtractTagged(fileName, text, tag string) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block

	for i := 0; i < len(lines); i++ {
		fence, ok := OpensFence(lines[i], tag)
		if !ok {
			continue
		}

		start := i
		var body []string
		end := len(lines) - 1
		for i++; i < len(lines); i++ {
			if ClosesFence(lines[i], fence) {
				end = i
				break
			}
			body = append(body, strings.TrimRight(lines[i], "\r"))
		}

		blocks = append(blocks, Block{
			ID:        RefID(fileName, start),
			StartLine: start,
			EndLine:   end,
			Source:    strings.Join(body, "\n"),
		})
	}

	return blocks
}

// OpensFence reports whether line opens a fenced block tagged with tag and
// returns the fence characters used ("```" or "~~~").
func OpensFence(line, tag string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, fence := range []string{"```", "~~~"} {
		rest, ok := strings.CutPrefix(trimmed, fence)
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rest), tag) {
			return fence, true
		}
	}
	return "", false
}

// ClosesFence reports whether line is a bare closing fence of the given kind.
func ClosesFence(line, fence string) bool {
	return strings.TrimSpace(line) == fence
}
