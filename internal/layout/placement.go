package layout

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/alnah/go-md2slides/internal/diagram"
)

// ErrImageDimensions is returned when an image's pixel size cannot be read.
var ErrImageDimensions = errors.New("failed to read image dimensions")

// Aspect ratio bucket boundaries (width / height).
const (
	wideRatio     = 1.6
	moderateRatio = 1.2
)

// Vertical offsets below the title band for top-anchored buckets, in inches.
const (
	moderateTopOffset = 0.3
	tallTopOffset     = 0.2
)

// Geometry is a box on the canvas, in inches from the top-left corner.
type Geometry struct {
	X, Y, Width, Height float64
}

// Placement positions a resolved diagram on a page.
// Fallback is set when the image size could not be read.
type Placement struct {
	Ref      *diagram.Ref
	Geometry Geometry
	Fallback bool
}

// Canvas is the fixed page area diagrams are fitted into.
type Canvas struct {
	Width     float64 // page width
	Height    float64 // page height
	TitleBand float64 // reserved at the top for the page title
	Margin    float64 // left, right and bottom margin
}

// DefaultCanvas is a 16:9 page, 10 x 5.625 inches.
func DefaultCanvas() Canvas {
	return Canvas{Width: 10, Height: 5.625, TitleBand: 1.0, Margin: 0.5}
}

func (c Canvas) availWidth() float64  { return c.Width - 2*c.Margin }
func (c Canvas) availHeight() float64 { return c.Height - c.TitleBand - c.Margin }

// Place fits an image of w x h pixels below the title band.
//
// Wide images (ratio > 1.6) fill the width and are centered vertically.
// Moderately wide images (1.2 < ratio <= 1.6) fill the width and sit near
// the top. Tall or square images fill the height and are centered
// horizontally. The secondary dimension is scaled down if it overflows.
func (c Canvas) Place(w, h int) Geometry {
	if w <= 0 || h <= 0 {
		return c.Fallback()
	}

	ratio := float64(w) / float64(h)
	maxW, maxH := c.availWidth(), c.availHeight()

	var g Geometry
	switch {
	case ratio > moderateRatio:
		g.Width = maxW
		g.Height = g.Width / ratio
		if g.Height > maxH {
			g.Height = maxH
			g.Width = g.Height * ratio
		}
		g.X = (c.Width - g.Width) / 2
		if ratio > wideRatio {
			g.Y = c.TitleBand + (maxH-g.Height)/2
		} else {
			g.Y = c.TitleBand + min(moderateTopOffset, maxH-g.Height)
		}
	default:
		g.Height = maxH
		g.Width = g.Height * ratio
		if g.Width > maxW {
			g.Width = maxW
			g.Height = g.Width / ratio
		}
		g.X = (c.Width - g.Width) / 2
		g.Y = c.TitleBand + min(tallTopOffset, maxH-g.Height)
	}
	return g
}

// Fallback is a conservative centered box used when the image size is unknown.
func (c Canvas) Fallback() Geometry {
	w := c.availWidth() * 0.85
	h := c.availHeight() * 0.85
	return Geometry{
		X:      (c.Width - w) / 2,
		Y:      c.TitleBand + (c.availHeight()-h)/2,
		Width:  w,
		Height: h,
	}
}

// PlaceFile reads the image size at path and places it. When that fails
// the placement uses Fallback geometry and is flagged as such.
func (c Canvas) PlaceFile(path string) Placement {
	w, h, err := ImageSize(path)
	if err != nil {
		return Placement{Geometry: c.Fallback(), Fallback: true}
	}
	return Placement{Geometry: c.Place(w, h)}
}

// ImageSize reads the pixel dimensions of a PNG, JPEG, GIF, WebP or BMP file.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the diagram store
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDimensions, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrImageDimensions, path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s: empty image", ErrImageDimensions, path)
	}
	return cfg.Width, cfg.Height, nil
}
