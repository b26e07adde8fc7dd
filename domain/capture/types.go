package capture

import (
	"image"
	"time"
)

// DefaultCanvas is the output frame size used when no canvas is configured.
var DefaultCanvas = image.Pt(480, 270)

// DefaultFrameInterval paces the loop at roughly 100 frames per second.
const DefaultFrameInterval = 10 * time.Millisecond

// CaptureRequest describes one capture: the clipped desktop rectangle to
// copy, where it lands inside the canvas, and the canvas size itself.
type CaptureRequest struct {
	Source     image.Rectangle // desktop coordinates
	DestOffset image.Point     // canvas coordinates
	Canvas     image.Point
}

// CursorState is the pointer as seen during a single iteration.
// Icon is nil when the pointer is hidden.
type CursorState struct {
	Visible  bool
	Position image.Point
	Icon     Icon
}

// Backend is the narrow native capability the pipeline consumes. All methods
// may block and are only ever called from the capture worker.
type Backend interface {
	// DesktopBounds returns the rectangle spanned by all active displays.
	DesktopBounds() (image.Rectangle, error)
	// PointerPosition returns the pointer in desktop coordinates.
	PointerPosition() (image.Point, error)
	// Grab allocates a canvas-sized surface, fills it with black and copies
	// req.Source from the live desktop to req.DestOffset.
	Grab(req CaptureRequest) (Surface, error)
	// Cursor reports pointer visibility, position and a duplicated icon.
	// The caller owns the returned icon and must release it.
	Cursor() (CursorState, error)
}

// Surface is an off-screen canvas owned by one iteration.
type Surface interface {
	// DrawIcon composites icon (mask and colour layers) with its top-left at.
	DrawIcon(icon Icon, at image.Point) error
	// Extract copies the surface into dst as top-down RGBA.
	Extract(dst []byte) error
	// Release frees every native resource held by the surface. Safe to call twice.
	Release()
}

// Icon is a duplicated pointer icon handle.
type Icon interface {
	// Hotspot returns the pixel inside the icon that marks the pointer tip.
	Hotspot() (image.Point, error)
	Release()
}

// Frame is an encoded canvas handed to the downstream consumer.
type Frame struct {
	TxID       uint32
	Width      int
	Height     int
	Pixels     []byte // RGB565, little-endian, row-major
	CapturedAt time.Time
}
