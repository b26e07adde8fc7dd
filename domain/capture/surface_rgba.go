package capture

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ImageIcon is an Icon backed by an in-memory image.
type ImageIcon interface {
	Icon
	Image() image.Image
}

// RGBASurface is a Surface held entirely in Go memory. Backends that receive
// pixels as buffers (X11, tests) composite into it.
type RGBASurface struct {
	img *image.RGBA
}

// NewRGBASurface returns a canvas-sized surface filled with opaque black.
func NewRGBASurface(canvas image.Point) *RGBASurface {
	img := image.NewRGBA(image.Rectangle{Max: canvas})
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return &RGBASurface{img: img}
}

// Blit copies src into the surface with its top-left at dest.
func (s *RGBASurface) Blit(src image.Image, dest image.Point) {
	b := src.Bounds()
	draw.Draw(s.img, image.Rectangle{Min: dest, Max: dest.Add(b.Size())}, src, b.Min, draw.Src)
}

// Image exposes the backing canvas.
func (s *RGBASurface) Image() *image.RGBA { return s.img }

func (s *RGBASurface) DrawIcon(icon Icon, at image.Point) error {
	ii, ok := icon.(ImageIcon)
	if !ok {
		return fmt.Errorf("capture: cannot draw icon of type %T", icon)
	}
	src := ii.Image()
	b := src.Bounds()
	draw.Draw(s.img, image.Rectangle{Min: at, Max: at.Add(b.Size())}, src, b.Min, draw.Over)
	return nil
}

func (s *RGBASurface) Extract(dst []byte) error {
	if s.img == nil {
		return fmt.Errorf("capture: surface released: %w", ErrExtraction)
	}
	return copyRGBA(dst, s.img, s.img.Rect.Dx(), s.img.Rect.Dy())
}

func (s *RGBASurface) Release() { s.img = nil }
