package capture

import "errors"

// Iteration-scoped failures. Backends wrap these with %w so callers can
// classify with errors.Is.
var (
	ErrDesktopQuery      = errors.New("desktop bounds query failed")
	ErrSurfaceAllocation = errors.New("surface allocation failed")
	ErrCaptureTransfer   = errors.New("capture transfer failed")
	ErrNoVisibleArea     = errors.New("no visible capture area")
	ErrExtraction        = errors.New("pixel extraction failed")
)

// Skippable reports whether err only means "nothing to capture this cycle".
func Skippable(err error) bool {
	return errors.Is(err, ErrNoVisibleArea)
}
