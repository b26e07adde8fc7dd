package capture

import (
	"image"
	"log/slog"
)

// iconPosition maps the pointer into canvas space and subtracts the hotspot.
func iconPosition(pointer image.Point, req CaptureRequest, hotspot image.Point) image.Point {
	return pointer.Sub(req.Source.Min).Add(req.DestOffset).Sub(hotspot)
}

// compositeCursor draws the current pointer icon onto s. A hidden pointer is
// not an error. The icon is always released before returning.
func compositeCursor(b Backend, s Surface, req CaptureRequest, logger *slog.Logger) error {
	cur, err := b.Cursor()
	if err != nil {
		return err
	}
	if cur.Icon != nil {
		defer cur.Icon.Release()
	}
	if !cur.Visible || cur.Icon == nil {
		return nil
	}

	hotspot, err := cur.Icon.Hotspot()
	if err != nil {
		// Unverified fallback: place the icon's top-left on the pointer.
		if logger != nil {
			logger.Debug("cursor hotspot unavailable", "error", err)
		}
		hotspot = image.Point{}
	}
	return s.DrawIcon(cur.Icon, iconPosition(cur.Position, req, hotspot))
}
