package md2slides

// Notes:
// - Converter tests swap the PDF backend for mockPDFConverter, so no browser
//   is launched.
// - Diagram rendering uses either fakeResolver or an httptest server standing
//   in for the render endpoint.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alnah/go-md2slides/internal/diagram"
)

const deckMarkdown = "# Deck\n\n## Flow\n\n```mermaid\ngraph TD; A-->B\n```\n\n- First point\n- Second point\n"

// mockPDFConverter implements pdfConverter for testing.
type mockPDFConverter struct {
	output   []byte
	err      error
	called   bool
	lastHTML string
	lastOpts *pdfOptions
	closed   bool
}

func (m *mockPDFConverter) ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	m.called = true
	m.lastHTML = htmlContent
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.output != nil {
		return m.output, nil
	}
	return []byte("%PDF-1.4 mock"), nil
}

func (m *mockPDFConverter) Close() error {
	m.closed = true
	return nil
}

// fakeResolver implements diagramResolver without network access.
type fakeResolver struct {
	image string
	err   error
	calls atomic.Int32
	panic bool
}

func (f *fakeResolver) ResolveAll(ctx context.Context, refs []*diagram.Ref) diagram.Report {
	f.calls.Add(1)
	if f.panic {
		panic("resolver exploded")
	}
	rep := diagram.Report{Total: len(refs)}
	for _, ref := range refs {
		if f.err != nil {
			ref.Err = f.err
			rep.Failed++
			rep.Failures = append(rep.Failures, ref)
			continue
		}
		ref.ImagePath = f.image
		rep.Resolved++
	}
	return rep
}

// withResolver injects a diagram resolver.
func withResolver(r diagramResolver) Option {
	return func(c *converterConfig) {
		c.resolver = r
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writePNG writes a w x h PNG into dir and returns its path.
func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	path := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(path, pngBytes(t, w, h), 0o600); err != nil {
		t.Fatalf("writing PNG: %v", err)
	}
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

// newTestConverter builds a converter with a mock PDF backend.
func newTestConverter(t *testing.T, opts ...Option) (*Converter, *mockPDFConverter) {
	t.Helper()

	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() unexpected error: %v", err)
	}
	mock := &mockPDFConverter{}
	conv.pdfConverter = mock
	t.Cleanup(func() { _ = conv.Close() })
	return conv, mock
}

func TestConvert_Slides(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	img := writePNG(t, cacheDir, 800, 400)
	resolver := &fakeResolver{image: img}
	conv, mock := newTestConverter(t, withResolver(resolver), WithDiagrams(DiagramSettings{CacheDir: cacheDir}))

	result, err := conv.Convert(context.Background(), Input{Markdown: deckMarkdown, Name: "deck"})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	if got := result.Document.Title; got != "Deck" {
		t.Errorf("Document.Title = %q, want %q", got, "Deck")
	}
	refs := result.Document.Diagrams()
	if len(refs) != 1 || refs[0].ID != "deck_4" {
		t.Fatalf("Document.Diagrams() = %v, want one ref with ID deck_4", refs)
	}
	if len(result.Pages) != 2 {
		t.Errorf("len(Pages) = %d, want 2 (text page and diagram page)", len(result.Pages))
	}
	if result.Diagrams.Resolved != 1 || result.Diagrams.Failed != 0 {
		t.Errorf("Diagrams = %+v, want 1 resolved", result.Diagrams)
	}

	html := string(result.HTML)
	for _, want := range []string{
		`<section class="slide slide-title">`,
		"<h1>Deck</h1>",
		"<h2>Flow</h2>",
		`<span class="marker">•</span>First point`,
		`<img class="diagram" src="file://`,
		"<style>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}

	if !mock.called {
		t.Fatal("ToPDF was not called")
	}
	if string(result.PDF) != "%PDF-1.4 mock" {
		t.Errorf("PDF = %q, want mock output", result.PDF)
	}
	if mock.lastOpts == nil || mock.lastOpts.Margin != 0 {
		t.Errorf("pdf options = %+v, want edge-to-edge slide page", mock.lastOpts)
	}
	if mock.lastOpts != nil && mock.lastOpts.Width <= mock.lastOpts.Height {
		t.Errorf("slide page %vx%v is not landscape", mock.lastOpts.Width, mock.lastOpts.Height)
	}
}

func TestConvert_Document(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	img := writePNG(t, cacheDir, 400, 300)
	conv, mock := newTestConverter(t,
		WithTarget(TargetDocument),
		withResolver(&fakeResolver{image: img}),
		WithDiagrams(DiagramSettings{CacheDir: cacheDir}),
	)

	result, err := conv.Convert(context.Background(), Input{
		Markdown: deckMarkdown + "\nSome ==marked== text.\n",
		Name:     "deck",
	})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	if result.Pages != nil {
		t.Errorf("Pages = %v, want nil for the document target", result.Pages)
	}

	html := string(result.HTML)
	for _, want := range []string{
		"<title>Deck</title>",
		`<h2 id="flow">Flow</h2>`,
		"<mark>marked</mark>",
		`src="file://`,
		filepath.Base(img),
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "graph TD") {
		t.Error("HTML still contains the diagram source")
	}

	if mock.lastOpts == nil || mock.lastOpts.Width != a4WidthInches || mock.lastOpts.Margin != documentMarginIn {
		t.Errorf("pdf options = %+v, want A4 with margins", mock.lastOpts)
	}
}

func TestConvert_HTMLOnly(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t, withResolver(&fakeResolver{}))

	result, err := conv.Convert(context.Background(), Input{Markdown: "# Title\n\n## A\n\n- one\n", HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if mock.called {
		t.Error("ToPDF was called with HTMLOnly set")
	}
	if result.PDF != nil {
		t.Errorf("PDF = %q, want nil", result.PDF)
	}
	if len(result.HTML) == 0 {
		t.Error("HTML is empty")
	}
}

func TestConvert_EmptyMarkdown(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{}
	conv, _ := newTestConverter(t, withResolver(resolver))

	_, err := conv.Convert(context.Background(), Input{})
	if !errors.Is(err, ErrEmptyMarkdown) {
		t.Fatalf("Convert() error = %v, want %v", err, ErrEmptyMarkdown)
	}
	if resolver.calls.Load() != 0 {
		t.Error("resolver was called for empty input")
	}
}

func TestConvert_DiagramFailureIsSkipped(t *testing.T) {
	t.Parallel()

	renderErr := errors.New("render service down")
	conv, mock := newTestConverter(t, withResolver(&fakeResolver{err: renderErr}))

	result, err := conv.Convert(context.Background(), Input{Markdown: deckMarkdown, Name: "deck"})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if result.Diagrams.Failed != 1 {
		t.Errorf("Diagrams.Failed = %d, want 1", result.Diagrams.Failed)
	}
	if !errors.Is(result.Diagrams.Err(), renderErr) {
		t.Errorf("Diagrams.Err() = %v, want to wrap %v", result.Diagrams.Err(), renderErr)
	}
	if len(result.Pages) != 1 {
		t.Errorf("len(Pages) = %d, want 1 (diagram page skipped)", len(result.Pages))
	}
	if strings.Contains(string(result.HTML), `class="diagram`) {
		t.Error("HTML contains a diagram image for a failed render")
	}
	if !mock.called {
		t.Error("ToPDF was not called")
	}
}

func TestConvert_PDFError(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t, withResolver(&fakeResolver{}))
	mock.err = ErrPDFGeneration

	_, err := conv.Convert(context.Background(), Input{Markdown: "# T\n\n## A\n\n- x\n"})
	if !errors.Is(err, ErrPDFGeneration) {
		t.Fatalf("Convert() error = %v, want %v", err, ErrPDFGeneration)
	}
}

func TestConvert_CanceledContext(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t, withResolver(&fakeResolver{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, Input{Markdown: deckMarkdown})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Convert() error = %v, want %v", err, context.Canceled)
	}
	if mock.called {
		t.Error("ToPDF was called after cancellation")
	}
}

func TestConvert_RecoversPanic(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t, withResolver(&fakeResolver{panic: true}))

	_, err := conv.Convert(context.Background(), Input{Markdown: deckMarkdown})
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Fatalf("Convert() error = %v, want internal error", err)
	}
}

func TestConvert_ExtraCSS(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t, withResolver(&fakeResolver{}))

	result, err := conv.Convert(context.Background(), Input{
		Markdown: "# T\n\n## A\n\n- x\n",
		CSS:      ".slide { background: navy; }",
		HTMLOnly: true,
	})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if !strings.Contains(string(result.HTML), ".slide { background: navy; }") {
		t.Error("HTML missing extra CSS")
	}
}

func TestConvert_RenderEndpoint(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	body := pngBytes(t, 600, 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		if !strings.HasPrefix(req.URL.Path, "/img/") {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	cacheDir := t.TempDir()
	conv, _ := newTestConverter(t, WithDiagrams(DiagramSettings{Endpoint: srv.URL, CacheDir: cacheDir}))

	// The same diagram twice: one download, two resolved references.
	md := deckMarkdown + "\n## Again\n\n```mermaid\ngraph TD; A-->B\n```\n"
	result, err := conv.Convert(context.Background(), Input{Markdown: md, Name: "deck", HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if result.Diagrams.Resolved != 2 {
		t.Errorf("Diagrams = %+v, want 2 resolved", result.Diagrams)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("render requests = %d, want 1", got)
	}

	for _, ref := range result.Document.Diagrams() {
		if filepath.Dir(ref.ImagePath) != cacheDir {
			t.Errorf("ImagePath = %q, want a file in %q", ref.ImagePath, cacheDir)
		}
	}
}

func TestConvert_RenderEndpointFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad diagram", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	conv, _ := newTestConverter(t, WithDiagrams(DiagramSettings{Endpoint: srv.URL, CacheDir: t.TempDir()}))

	result, err := conv.Convert(context.Background(), Input{Markdown: deckMarkdown, Name: "deck", HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if result.Diagrams.Failed != 1 {
		t.Errorf("Diagrams.Failed = %d, want 1", result.Diagrams.Failed)
	}
}

func TestNewConverter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "invalid target",
			opts:    []Option{WithTarget("poster")},
			wantErr: ErrInvalidTarget,
		},
		{
			name:    "unknown style",
			opts:    []Option{WithStyle("nonexistent")},
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "missing asset path",
			opts:    []Option{WithAssetPath("/nonexistent/assets/dir")},
			wantErr: ErrInvalidAssetPath,
		},
		{
			name:    "missing style file",
			opts:    []Option{WithStyle("/nonexistent/style.css")},
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithLogger(discardLogger()), withResolver(&fakeResolver{})}, tt.opts...)
			_, err := NewConverter(opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewConverter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewConverter_StyleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brand.css")
	if err := os.WriteFile(path, []byte("h1 { color: teal; }"), 0o600); err != nil {
		t.Fatal(err)
	}

	conv, _ := newTestConverter(t, withResolver(&fakeResolver{}), WithStyle(path))
	if conv.style != "h1 { color: teal; }" {
		t.Errorf("style = %q, want file content", conv.style)
	}
}

func TestNewConverter_DefaultStylePerTarget(t *testing.T) {
	t.Parallel()

	slides, _ := newTestConverter(t, withResolver(&fakeResolver{}))
	doc, _ := newTestConverter(t, withResolver(&fakeResolver{}), WithTarget(TargetDocument))

	if !strings.Contains(slides.style, "Slide deck") {
		t.Error("slides target did not load the slides style")
	}
	if !strings.Contains(doc.style, "Full document") {
		t.Error("document target did not load the document style")
	}
}

func TestNewConverter_CustomAssets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stylesDir := filepath.Join(dir, "styles")
	if err := os.MkdirAll(stylesDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stylesDir, "brand.css"), []byte(".brand{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	conv, _ := newTestConverter(t, withResolver(&fakeResolver{}), WithAssetPath(dir), WithStyle("brand"))
	if conv.style != ".brand{}" {
		t.Errorf("style = %q, want %q", conv.style, ".brand{}")
	}
	if conv.deck == nil {
		t.Error("deck template not loaded from embedded fallback")
	}
}

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t, withResolver(&fakeResolver{}))
	if err := conv.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if !mock.closed {
		t.Error("Close did not close the PDF converter")
	}

	var zero Converter
	if err := zero.Close(); err != nil {
		t.Errorf("zero Converter Close() = %v, want nil", err)
	}
}

func TestSourceDir(t *testing.T) {
	t.Parallel()

	if got := sourceDir(Input{SourceDir: "/docs", Path: "/other/a.md"}); got != "/docs" {
		t.Errorf("sourceDir() = %q, want %q", got, "/docs")
	}
	if got := sourceDir(Input{}); got != "" {
		t.Errorf("sourceDir() = %q, want empty", got)
	}
	abs, _ := filepath.Abs("talks/a.md")
	if got := sourceDir(Input{Path: "talks/a.md"}); got != filepath.Dir(abs) {
		t.Errorf("sourceDir() = %q, want %q", got, filepath.Dir(abs))
	}
}
