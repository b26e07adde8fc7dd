package capture

import (
	"fmt"
	"image"
	"log/slog"
)

// grabRaw selects the region around the pointer, grabs it, overlays the
// cursor and extracts RGBA into a pooled buffer. The caller recycles the
// returned buffer. The surface is released on every path.
func grabRaw(b Backend, canvas image.Point, logger *slog.Logger) ([]byte, error) {
	pointer, err := b.PointerPosition()
	if err != nil {
		return nil, fmt.Errorf("capture: pointer query: %w", err)
	}
	desktop, err := b.DesktopBounds()
	if err != nil {
		return nil, err
	}
	req, err := SelectRegion(pointer, desktop, canvas)
	if err != nil {
		return nil, err
	}

	surface, err := b.Grab(req)
	if err != nil {
		return nil, err
	}
	defer surface.Release()

	if err := compositeCursor(b, surface, req, logger); err != nil && logger != nil {
		logger.Debug("cursor overlay skipped", "error", err)
	}

	raw := acquireRaw(canvas.X * canvas.Y * 4)
	if err := surface.Extract(raw); err != nil {
		recycleRaw(raw)
		return nil, err
	}
	return raw, nil
}

// CaptureFrame runs one capture and returns the canvas encoded as RGB565.
func CaptureFrame(b Backend, canvas image.Point, logger *slog.Logger) ([]byte, error) {
	raw, err := grabRaw(b, canvas, logger)
	if err != nil {
		return nil, err
	}
	defer recycleRaw(raw)
	return EncodeRGB565(raw, canvas.X, canvas.Y)
}

// CaptureImage runs one capture and returns the unencoded canvas.
func CaptureImage(b Backend, canvas image.Point, logger *slog.Logger) (*image.RGBA, error) {
	raw, err := grabRaw(b, canvas, logger)
	if err != nil {
		return nil, err
	}
	defer recycleRaw(raw)
	img := image.NewRGBA(image.Rect(0, 0, canvas.X, canvas.Y))
	copy(img.Pix, raw)
	return img, nil
}
