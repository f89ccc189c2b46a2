package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewritePaths converts local image and link paths to file:// URLs so the
// browser can load them from a temporary HTML file.
//
// Relative img[src] and a[href] values are resolved against sourceDir and
// rewritten when they stay inside it. Absolute img[src] paths are rewritten
// only when they lie under one of trustedDirs, such as the diagram cache.
// URLs, anchors, media elements, srcset and CSS url() are left alone.
// With an empty sourceDir and no trusted directories the HTML is returned
// unchanged.
func RewritePaths(htmlContent, sourceDir string, trustedDirs ...string) (string, error) {
	r := rewriter{}
	if sourceDir != "" {
		abs, err := filepath.Abs(sourceDir)
		if err != nil {
			return "", err
		}
		r.sourceDir = abs
	}
	for _, dir := range trustedDirs {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		r.trusted = append(r.trusted, abs)
	}
	if r.sourceDir == "" && len(r.trusted) == 0 {
		return htmlContent, nil
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}
	r.rewriteNode(doc)
	return renderHTML(doc, isFragment)
}

type rewriter struct {
	sourceDir string
	trusted   []string
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.TrimSpace(content)

	// Full document: starts with <!DOCTYPE or <html
	if strings.HasPrefix(strings.ToLower(trimmed), "<!doctype") ||
		strings.HasPrefix(strings.ToLower(trimmed), "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	bodyCtx := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), bodyCtx)
	if err != nil {
		return nil, true, err
	}

	// Wrap nodes in a container for uniform traversal
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		// Render each child directly
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	// Full document: render normally
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r rewriter) rewriteNode(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			r.rewriteAttr(n, "src", true)
		case "a":
			r.rewriteAttr(n, "href", false)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.rewriteNode(c)
	}
}

func (r rewriter) rewriteAttr(n *html.Node, attrName string, allowAbsolute bool) {
	for i, attr := range n.Attr {
		if attr.Key != attrName {
			continue
		}
		if p, ok := r.resolve(attr.Val, allowAbsolute); ok {
			n.Attr[i].Val = pathToFileURL(p)
		}
	}
}

// resolve returns the absolute path for val if it may be rewritten.
func (r rewriter) resolve(val string, allowAbsolute bool) (string, bool) {
	// goldmark percent-encodes spaces and non-ASCII characters.
	if unescaped, err := url.PathUnescape(val); err == nil {
		val = unescaped
	}

	if allowAbsolute && filepath.IsAbs(val) {
		for _, dir := range r.trusted {
			if isPathUnderDir(val, dir) {
				return filepath.Clean(val), true
			}
		}
		return "", false
	}
	if r.sourceDir == "" || !isRelativePath(val) {
		return "", false
	}

	abs := filepath.Join(r.sourceDir, val)
	if !isPathUnderDir(abs, r.sourceDir) {
		return "", false
	}
	return abs, true
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, "#") || filepath.IsAbs(path) {
		return false
	}
	// Any scheme (http, file, data, mailto); single letters are drive names.
	if u, err := url.Parse(path); err == nil && len(u.Scheme) > 1 {
		return false
	}
	return true
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	// Ensure dir ends with separator for correct prefix matching
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	// Path is under dir if it starts with dir/ or equals dir
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func pathToFileURL(absPath string) string {
	// filepath.ToSlash handles Windows backslashes
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
