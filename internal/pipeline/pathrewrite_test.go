package pipeline

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testSourceDir() string {
	if runtime.GOOS == "windows" {
		return `C:\docs`
	}
	return "/docs"
}

func TestRewritePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		html         string
		wantContains []string
	}{
		{
			name:         "relative image with dot slash",
			html:         `<img src="./images/logo.png">`,
			wantContains: []string{`src="file://`},
		},
		{
			name:         "relative image without dot slash",
			html:         `<img src="images/logo.png">`,
			wantContains: []string{`src="file://`, `logo.png"`},
		},
		{
			name:         "percent encoded relative image",
			html:         `<img src="my%20images/logo.png">`,
			wantContains: []string{`src="file://`, `my%20images/logo.png"`},
		},
		{
			name:         "absolute path outside trusted dirs unchanged",
			html:         `<img src="/abs/logo.png">`,
			wantContains: []string{`src="/abs/logo.png"`},
		},
		{
			name:         "http URL unchanged",
			html:         `<img src="https://example.com/logo.png">`,
			wantContains: []string{`src="https://example.com/logo.png"`},
		},
		{
			name:         "mailto unchanged",
			html:         `<a href="mailto:risk@example.com">mail</a>`,
			wantContains: []string{`href="mailto:risk@example.com"`},
		},
		{
			name:         "anchor unchanged",
			html:         `<a href="#section">jump</a>`,
			wantContains: []string{`href="#section"`},
		},
		{
			name:         "relative link rewritten",
			html:         `<a href="appendix.pdf">appendix</a>`,
			wantContains: []string{`href="file://`},
		},
		{
			name:         "traversal left alone",
			html:         `<img src="../../etc/passwd">`,
			wantContains: []string{`src="../../etc/passwd"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewritePaths(tt.html, testSourceDir())
			if err != nil {
				t.Fatalf("RewritePaths() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RewritePaths() = %q, want to contain %q", got, want)
				}
			}
		})
	}
}

func TestRewritePaths_TrustedDirs(t *testing.T) {
	t.Parallel()

	cache := t.TempDir()
	img := filepath.Join(cache, "a1b2c3d4.png")
	html := `<p><img src="` + filepath.ToSlash(img) + `" alt="d"><img src="/elsewhere/x.png"></p>`

	got, err := RewritePaths(html, "", cache)
	if err != nil {
		t.Fatalf("RewritePaths() error = %v", err)
	}
	if want := `src="` + pathToFileURL(img) + `"`; !strings.Contains(got, want) {
		t.Errorf("RewritePaths() = %q, want trusted image as %s", got, want)
	}
	if !strings.Contains(got, `src="/elsewhere/x.png"`) {
		t.Errorf("RewritePaths() = %q, untrusted absolute path must stay", got)
	}
}

func TestRewritePaths_NoDirs(t *testing.T) {
	t.Parallel()

	html := `<img src="logo.png">`
	got, err := RewritePaths(html, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != html {
		t.Errorf("RewritePaths() = %q, want unchanged", got)
	}
}

func TestRewritePaths_FullDocument(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><img src="./logo.png"></body>
</html>`

	got, err := RewritePaths(html, testSourceDir())
	if err != nil {
		t.Fatalf("RewritePaths() error = %v", err)
	}
	if !strings.Contains(strings.ToLower(got), "doctype") {
		t.Error("full document should keep its DOCTYPE")
	}
	if !strings.Contains(got, `src="file://`) {
		t.Error("image path should be rewritten")
	}
}

func TestIsRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"./image.png", true},
		{"images/logo.png", true},
		{"../parent.png", true},
		{"", false},
		{"http://example.com/img.png", false},
		{"file:///abs/path.png", false},
		{"data:image/png;base64,ABC", false},
		{"mailto:a@b.c", false},
		{"//cdn.example.com/img.png", false},
		{"#anchor", false},
		{"/absolute/path.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := isRelativePath(tt.path); got != tt.want {
				t.Errorf("isRelativePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsPathUnderDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		absPath string
		dir     string
		want    bool
	}{
		{"/docs/image.png", "/docs", true},
		{"/docs/images/logo.png", "/docs/", true},
		{"/etc/passwd", "/docs", false},
		{"/docs-other/image.png", "/docs", false},
		{"/docs", "/docs", true},
	}

	for _, tt := range tests {
		absPath := filepath.FromSlash(tt.absPath)
		dir := filepath.FromSlash(tt.dir)
		if got := isPathUnderDir(absPath, dir); got != tt.want {
			t.Errorf("isPathUnderDir(%q, %q) = %v, want %v", absPath, dir, got, tt.want)
		}
	}
}

func TestPathToFileURL(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	tests := map[string]string{
		"/docs/images/logo.png":    "file:///docs/images/logo.png",
		"/docs/my images/logo.png": "file:///docs/my%20images/logo.png",
		"/docs/日本語/logo.png":       "file:///docs/%E6%97%A5%E6%9C%AC%E8%AA%9E/logo.png",
	}
	for in, want := range tests {
		if got := pathToFileURL(in); got != want {
			t.Errorf("pathToFileURL(%q) = %q, want %q", in, got, want)
		}
	}
}
