package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed styles/*.css templates/*.html
var builtin embed.FS

// assetKind describes where one kind of asset lives inside an asset tree.
type assetKind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = assetKind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = assetKind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

func (k assetKind) file(name string) string { return path.Join(k.dir, name+k.ext) }

// EmbeddedLoader serves the slides and document styles and the deck template
// compiled into the binary.
type EmbeddedLoader struct {
	fsys fs.FS
}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{fsys: builtin}
}

// LoadStyle returns the built-in stylesheet for a deck target.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return e.load(styleKind, name)
}

// LoadTemplate returns a built-in page template.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return e.load(templateKind, name)
}

func (e *EmbeddedLoader) load(kind assetKind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := fs.ReadFile(e.fsys, kind.file(name))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not built in", kind.notFound, name)
	}
	return string(content), nil
}

// Styles lists the built-in style names in lexical order.
func (e *EmbeddedLoader) Styles() []string {
	entries, err := fs.ReadDir(e.fsys, styleKind.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), styleKind.ext); ok {
			names = append(names, name)
		}
	}
	return names
}

var _ AssetLoader = (*EmbeddedLoader)(nil)
