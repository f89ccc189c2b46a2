package assets

import (
	"errors"
	"fmt"
	"strings"
)

// source is one place a deck style or template can come from.
type source struct {
	origin string
	loader AssetLoader
}

// AssetResolver looks a style or template up in the asset directory given
// with --asset-path, then in the built-in set. A name missing from one source
// moves on to the next; an invalid name or an unreadable file stops the
// lookup.
type AssetResolver struct {
	sources []source
}

// NewAssetResolver creates an AssetResolver. An empty assetPath resolves
// built-in assets only. ErrInvalidBasePath is returned when assetPath is
// set but is not a readable directory.
func NewAssetResolver(assetPath string) (*AssetResolver, error) {
	var sources []source
	if assetPath != "" {
		dir, err := NewFilesystemLoader(assetPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{origin: assetPath, loader: dir})
	}
	sources = append(sources, source{origin: "built-in", loader: NewEmbeddedLoader()})
	return &AssetResolver{sources: sources}, nil
}

// LoadStyle resolves the stylesheet for a deck target or a custom style name.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.resolve(AssetLoader.LoadStyle, name, ErrStyleNotFound)
}

// LoadTemplate resolves a page template.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.resolve(AssetLoader.LoadTemplate, name, ErrTemplateNotFound)
}

func (r *AssetResolver) resolve(load func(AssetLoader, string) (string, error), name string, notFound error) (string, error) {
	for _, src := range r.sources {
		content, err := load(src.loader, name)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, notFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %q (searched %s)", notFound, name, strings.Join(r.Origins(), ", "))
}

// Origins lists the searched sources in lookup order.
func (r *AssetResolver) Origins() []string {
	origins := make([]string, len(r.sources))
	for i, src := range r.sources {
		origins[i] = src.origin
	}
	return origins
}

var _ AssetLoader = (*AssetResolver)(nil)
