//go:build !windows

package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestArgbToRGBA_Channels(t *testing.T) {
	img := argbToRGBA([]uint32{0xFF102030, 0x80FFFFFF}, 2, 1)
	if c := img.RGBAAt(0, 0); c != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}) {
		t.Fatalf("unexpected pixel %v", c)
	}
	if c := img.RGBAAt(1, 0); c.A != 0x80 {
		t.Fatalf("alpha lost: %v", c)
	}
}

func TestArgbToRGBA_ShortInput(t *testing.T) {
	img := argbToRGBA([]uint32{0xFFFFFFFF}, 2, 2)
	if c := img.RGBAAt(1, 1); c != (color.RGBA{}) {
		t.Fatalf("missing pixels should stay transparent, got %v", c)
	}
}

func TestX11Grab_LetterboxesCapturedRect(t *testing.T) {
	var asked image.Rectangle
	b := &x11Backend{capture: func(r image.Rectangle) (*image.RGBA, error) {
		asked = r
		img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+3] = 0xFF, 0xFF
		}
		return img, nil
	}}
	req := CaptureRequest{Source: image.Rect(0, 0, 4, 2), DestOffset: image.Pt(4, 2), Canvas: image.Pt(8, 4)}
	s, err := b.Grab(req)
	if err != nil {
		t.Fatalf("grab: %v", err)
	}
	defer s.Release()
	if asked != req.Source {
		t.Fatalf("captured %v want %v", asked, req.Source)
	}
	img := s.(*RGBASurface).Image()
	if c := img.RGBAAt(0, 0); c != (color.RGBA{A: 0xFF}) {
		t.Fatalf("expected black at origin, got %v", c)
	}
	if c := img.RGBAAt(5, 3); c != desktopRed {
		t.Fatalf("expected captured pixel, got %v", c)
	}
}

func TestX11Grab_WrapsTransferError(t *testing.T) {
	b := &x11Backend{capture: func(image.Rectangle) (*image.RGBA, error) {
		return nil, errors.New("BadMatch")
	}}
	_, err := b.Grab(CaptureRequest{Source: image.Rect(0, 0, 1, 1), Canvas: image.Pt(2, 2)})
	if !errors.Is(err, ErrCaptureTransfer) {
		t.Fatalf("expected ErrCaptureTransfer, got %v", err)
	}
}

func TestZpixmapToRGBA(t *testing.T) {
	// two BGRX pixels, padding byte undefined
	img, err := zpixmapToRGBA([]byte{0x30, 0x20, 0x10, 0x00, 0xFF, 0x00, 0x00, 0x7F}, 24, 2, 1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}) {
		t.Fatalf("unexpected pixel %v", c)
	}
	if c := img.RGBAAt(1, 0); c != (color.RGBA{B: 0xFF, A: 0xFF}) {
		t.Fatalf("unexpected pixel %v", c)
	}
	if _, err := zpixmapToRGBA(make([]byte, 4), 16, 2, 1); !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction for 16-bit depth, got %v", err)
	}
	if _, err := zpixmapToRGBA(make([]byte, 4), 24, 2, 1); !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction for short data, got %v", err)
	}
}
