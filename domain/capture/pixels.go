package capture

import (
	"fmt"
	"image"
)

// swapRB converts native BGRA rows into RGBA. GDI leaves the fourth byte
// undefined, so alpha is forced opaque.
func swapRB(dst, src []byte) error {
	if len(src) != len(dst) || len(src)%4 != 0 {
		return fmt.Errorf("capture: pixel buffer mismatch src=%d dst=%d: %w", len(src), len(dst), ErrExtraction)
	}
	for i := 0; i < len(src); i += 4 {
		b := src[i+0]
		g := src[i+1]
		r := src[i+2]
		dst[i+0] = r
		dst[i+1] = g
		dst[i+2] = b
		dst[i+3] = 0xFF
	}
	return nil
}

// copyRGBA copies an image.RGBA of exactly w x h into a tightly packed dst,
// honouring the source stride.
func copyRGBA(dst []byte, img *image.RGBA, w, h int) error {
	if img == nil || img.Rect.Dx() != w || img.Rect.Dy() != h || len(dst) != w*h*4 {
		return fmt.Errorf("capture: rgba copy mismatch dst=%d w=%d h=%d: %w", len(dst), w, h, ErrExtraction)
	}
	row := w * 4
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+row]
		copy(dst[y*row:(y+1)*row], src)
	}
	return nil
}
