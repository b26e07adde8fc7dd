package capture

import (
	"encoding/binary"
	"fmt"
	"image"
)

// EncodeRGB565 packs a top-down RGBA buffer into little-endian RGB565.
// Channels are truncated (R>>3, G>>2, B>>3) and alpha is dropped.
func EncodeRGB565(raw []byte, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid frame size w=%d h=%d: %w", w, h, ErrExtraction)
	}
	dst := make([]byte, w*h*2)
	if err := EncodeRGB565Into(dst, raw); err != nil {
		return nil, err
	}
	return dst, nil
}

// EncodeRGB565Into is EncodeRGB565 writing into a caller-supplied buffer.
// len(dst)*2 must equal len(raw).
func EncodeRGB565Into(dst, raw []byte) error {
	if len(raw)%4 != 0 || len(dst)*2 != len(raw) {
		return fmt.Errorf("capture: rgb565 size mismatch raw=%d dst=%d: %w", len(raw), len(dst), ErrExtraction)
	}
	for i, o := 0, 0; i < len(raw); i, o = i+4, o+2 {
		binary.LittleEndian.PutUint16(dst[o:], Pack565(raw[i], raw[i+1], raw[i+2]))
	}
	return nil
}

// Pack565 quantises one pixel.
func Pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// DecodeRGB565 expands an encoded frame back into an opaque RGBA image for
// previews. Low bits are filled by replicating the high bits.
func DecodeRGB565(pix []byte, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h*2 {
		return nil, fmt.Errorf("capture: rgb565 decode size mismatch len=%d w=%d h=%d", len(pix), w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, o := 0, 0; i < len(pix); i, o = i+2, o+4 {
		v := binary.LittleEndian.Uint16(pix[i:])
		r5 := uint8(v >> 11)
		g6 := uint8(v>>5) & 0x3F
		b5 := uint8(v) & 0x1F
		img.Pix[o+0] = r5<<3 | r5>>2
		img.Pix[o+1] = g6<<2 | g6>>4
		img.Pix[o+2] = b5<<3 | b5>>2
		img.Pix[o+3] = 0xFF
	}
	return img, nil
}
