package capture

import (
	"fmt"
	"image"
)

// SelectRegion centres a canvas-sized rectangle on pointer, clips it to the
// desktop and returns where the clipped part belongs inside the canvas.
// A pointer far enough outside the desktop yields ErrNoVisibleArea.
func SelectRegion(pointer image.Point, desktop image.Rectangle, canvas image.Point) (CaptureRequest, error) {
	desired := image.Rectangle{Min: image.Pt(pointer.X-canvas.X/2, pointer.Y-canvas.Y/2)}
	desired.Max = desired.Min.Add(canvas)

	// Raw edges: image.Rect would canonicalise an inverted intersection.
	left := max(desired.Min.X, desktop.Min.X)
	top := max(desired.Min.Y, desktop.Min.Y)
	right := min(desired.Max.X, desktop.Max.X)
	bottom := min(desired.Max.Y, desktop.Max.Y)
	if right-left <= 0 || bottom-top <= 0 {
		return CaptureRequest{}, fmt.Errorf("capture: pointer=%v desktop=%v: %w", pointer, desktop, ErrNoVisibleArea)
	}

	clipped := image.Rectangle{Min: image.Pt(left, top), Max: image.Pt(right, bottom)}
	return CaptureRequest{
		Source:     clipped,
		DestOffset: clipped.Min.Sub(desired.Min),
		Canvas:     canvas,
	}, nil
}
