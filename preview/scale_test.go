package preview

import (
	"image"
	"image/color"
	"testing"
)

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 480, 270))
	// 2x2 block so it survives the 2:1 reduction whichever source pixel is sampled
	for _, p := range []image.Point{{478, 268}, {479, 268}, {478, 269}, {479, 269}} {
		src.SetRGBA(p.X, p.Y, color.RGBA{R: 9, A: 255})
	}

	if got := scaleToFit(src, 960, 540); got != src {
		t.Fatalf("fitting source should be returned unchanged")
	}
	if got := scaleToFit(src, 0, 10); got != src {
		t.Fatalf("non-positive limit should be ignored")
	}
	got := scaleToFit(src, 240, 240)
	if b := got.Bounds(); b.Dx() != 240 || b.Dy() != 135 {
		t.Fatalf("unexpected bounds %v", b)
	}
	if c := got.RGBAAt(239, 134); c.R != 9 {
		t.Fatalf("sampled pixel lost, got %v", c)
	}
	if c := got.RGBAAt(0, 0); c.R != 0 {
		t.Fatalf("unexpected pixel at origin %v", c)
	}
}
