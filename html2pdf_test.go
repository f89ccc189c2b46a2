package md2slides

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// mockRenderer implements pdfRenderer for testing.
type mockRenderer struct {
	Result      []byte
	Err         error
	CalledWith  string
	CalledOpts  *pdfOptions
	FileContent string
	Closed      bool
}

func (m *mockRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	m.CalledWith = filePath
	m.CalledOpts = opts
	if data, err := os.ReadFile(filePath); err == nil {
		m.FileContent = string(data)
	}
	return m.Result, m.Err
}

func (m *mockRenderer) Close() error {
	m.Closed = true
	return nil
}

func TestRodConverter_ToPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mock    *mockRenderer
		html    string
		opts    *pdfOptions
		want    string
		wantErr error
	}{
		{
			name: "slides page",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 slides")},
			html: "<html><body>deck</body></html>",
			opts: slidesPage(10, 5.625),
			want: "%PDF-1.4 slides",
		},
		{
			name: "document page",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 doc")},
			html: "<html><body>doc</body></html>",
			opts: documentPage(),
			want: "%PDF-1.4 doc",
		},
		{
			name:    "renderer error",
			mock:    &mockRenderer{Err: ErrPageLoad},
			html:    "<html></html>",
			wantErr: ErrPageLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := &rodConverter{renderer: tt.mock}
			got, err := conv.ToPDF(context.Background(), tt.html, tt.opts)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ToPDF() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToPDF() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ToPDF() = %q, want %q", got, tt.want)
			}
			if tt.mock.FileContent != tt.html {
				t.Errorf("rendered file content = %q, want %q", tt.mock.FileContent, tt.html)
			}
			if !strings.HasSuffix(tt.mock.CalledWith, ".html") {
				t.Errorf("rendered file = %q, want .html suffix", tt.mock.CalledWith)
			}
			if tt.mock.CalledOpts != tt.opts {
				t.Errorf("options = %+v, want %+v", tt.mock.CalledOpts, tt.opts)
			}
			if _, err := os.Stat(tt.mock.CalledWith); !os.IsNotExist(err) {
				t.Errorf("temporary file %q not removed", tt.mock.CalledWith)
			}
		})
	}
}

func TestRodConverter_Close(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{}
	conv := &rodConverter{renderer: mock}
	if err := conv.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if !mock.Closed {
		t.Error("Close() did not close the renderer")
	}

	empty := &rodConverter{}
	if err := empty.Close(); err != nil {
		t.Errorf("Close() on empty converter = %v, want nil", err)
	}
}

func TestRodRenderer_CloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	r := newRodRenderer(defaultTimeout)
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestRodRenderer_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(defaultTimeout)
	_, err := r.RenderFromFile(ctx, "/nonexistent.html", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderFromFile() error = %v, want %v", err, context.Canceled)
	}
	if r.browser != nil {
		t.Error("browser launched for a canceled context")
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       *pdfOptions
		wantWidth  float64
		wantHeight float64
		wantMargin float64
	}{
		{
			name:       "slides are edge to edge",
			opts:       slidesPage(10, 5.625),
			wantWidth:  10,
			wantHeight: 5.625,
		},
		{
			name:       "document is A4 with margins",
			opts:       documentPage(),
			wantWidth:  a4WidthInches,
			wantHeight: a4HeightInches,
			wantMargin: documentMarginIn,
		},
		{
			name:       "nil selects the document page",
			opts:       nil,
			wantWidth:  a4WidthInches,
			wantHeight: a4HeightInches,
			wantMargin: documentMarginIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildPDFOptions(tt.opts)
			if *got.PaperWidth != tt.wantWidth {
				t.Errorf("PaperWidth = %v, want %v", *got.PaperWidth, tt.wantWidth)
			}
			if *got.PaperHeight != tt.wantHeight {
				t.Errorf("PaperHeight = %v, want %v", *got.PaperHeight, tt.wantHeight)
			}
			for name, m := range map[string]*float64{
				"MarginTop":    got.MarginTop,
				"MarginBottom": got.MarginBottom,
				"MarginLeft":   got.MarginLeft,
				"MarginRight":  got.MarginRight,
			} {
				if *m != tt.wantMargin {
					t.Errorf("%s = %v, want %v", name, *m, tt.wantMargin)
				}
			}
			if !got.PrintBackground {
				t.Error("PrintBackground = false, want true")
			}
		})
	}
}
