//go:build windows

package capture

// Windows capture using per-frame GDI allocations.
// Each Grab creates a memory DC and a compatible bitmap sized to the canvas,
// blacks it out, BitBlt's the clipped desktop region into it and returns the
// surface. Every handle lives in a small wrapper whose Release is idempotent
// and deferred at the point of acquisition.

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 constants
const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
	srccopy           = 0x00CC0020
	captureblt        = 0x40000000
	blackness         = 0x00000042
	dibRGBColors      = 0
	biRgb             = 0
	cursorShowing     = 0x00000001
	diNormal          = 0x0003
	hgdiError         = ^uintptr(0)
)

// Win32 DLL procs (lazy loaded)
var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	gdi32                      = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC                  = user32.NewProc("GetDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procGetSystemMetrics       = user32.NewProc("GetSystemMetrics")
	procGetCursorPos           = user32.NewProc("GetCursorPos")
	procGetCursorInfo          = user32.NewProc("GetCursorInfo")
	procCopyIcon               = user32.NewProc("CopyIcon")
	procDestroyIcon            = user32.NewProc("DestroyIcon")
	procGetIconInfo            = user32.NewProc("GetIconInfo")
	procDrawIconEx             = user32.NewProc("DrawIconEx")
	procSetProcessDPIAware     = user32.NewProc("SetProcessDPIAware")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procPatBlt                 = gdi32.NewProc("PatBlt")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
)

// BITMAPINFO structures (Win32 layout).
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type point struct {
	X, Y int32
}

type cursorInfo struct {
	CbSize      uint32
	Flags       uint32
	HCursor     uintptr
	PtScreenPos point
}

type iconInfo struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  uintptr
	HbmColor uintptr
}

var dpiOnce sync.Once

type gdiBackend struct{}

// NewBackend returns the GDI backend. The process is marked DPI aware on
// first use so virtual-screen metrics are reported in physical pixels.
func NewBackend() (Backend, error) {
	dpiOnce.Do(func() { _, _, _ = procSetProcessDPIAware.Call() })
	return gdiBackend{}, nil
}

func (gdiBackend) DesktopBounds() (image.Rectangle, error) {
	x := getSystemMetric(smXVirtualScreen)
	y := getSystemMetric(smYVirtualScreen)
	w := getSystemMetric(smCxVirtualScreen)
	h := getSystemMetric(smCyVirtualScreen)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("capture: invalid virtual screen x=%d y=%d w=%d h=%d: %w", x, y, w, h, ErrDesktopQuery)
	}
	return image.Rect(int(x), int(y), int(x+w), int(y+h)), nil
}

func (gdiBackend) PointerPosition() (image.Point, error) {
	var pt point
	ok, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ok == 0 {
		return image.Point{}, fmt.Errorf("capture: GetCursorPos failed winerr=%d", winerr(err))
	}
	return image.Pt(int(pt.X), int(pt.Y)), nil
}

func (gdiBackend) Grab(req CaptureRequest) (Surface, error) {
	w, h := req.Canvas.X, req.Canvas.Y
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid canvas %v: %w", req.Canvas, ErrSurfaceAllocation)
	}

	// Acquire screen DC; only needed for the duration of the blit.
	screen, err := acquireScreenDC()
	if err != nil {
		return nil, err
	}
	defer screen.Release()

	s := &gdiSurface{w: w, h: h}
	keep := false
	defer func() {
		if !keep {
			s.Release()
		}
	}()

	dc, _, err := procCreateCompatibleDC.Call(screen.h)
	if dc == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleDC failed winerr=%d: %w", winerr(err), ErrSurfaceAllocation)
	}
	s.dc = memoryDC{h: dc}

	bmp, _, err := procCreateCompatibleBitmap.Call(screen.h, uintptr(w), uintptr(h))
	if bmp == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleBitmap failed w=%d h=%d winerr=%d: %w", w, h, winerr(err), ErrSurfaceAllocation)
	}
	s.bmp = gdiObject{h: bmp}

	prev, _, err := procSelectObject.Call(dc, bmp)
	if prev == 0 || prev == hgdiError {
		return nil, fmt.Errorf("capture: SelectObject failed winerr=%d: %w", winerr(err), ErrSurfaceAllocation)
	}
	s.sel = selection{dc: dc, prev: prev}

	// Letterbox background.
	ok, _, err := procPatBlt.Call(dc, 0, 0, uintptr(w), uintptr(h), blackness)
	if ok == 0 {
		return nil, fmt.Errorf("capture: PatBlt failed winerr=%d: %w", winerr(err), ErrSurfaceAllocation)
	}

	src := req.Source
	ok, _, err = procBitBlt.Call(dc,
		i32(req.DestOffset.X), i32(req.DestOffset.Y), uintptr(src.Dx()), uintptr(src.Dy()),
		screen.h, i32(src.Min.X), i32(src.Min.Y), srccopy|captureblt)
	if ok == 0 {
		return nil, fmt.Errorf("capture: BitBlt failed src=%v dst=%v winerr=%d: %w", src, req.DestOffset, winerr(err), ErrCaptureTransfer)
	}

	keep = true
	return s, nil
}

func (gdiBackend) Cursor() (CursorState, error) {
	ci := cursorInfo{CbSize: uint32(unsafe.Sizeof(cursorInfo{}))}
	ok, _, err := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci)))
	if ok == 0 {
		return CursorState{}, fmt.Errorf("capture: GetCursorInfo failed winerr=%d", winerr(err))
	}
	if ci.Flags&cursorShowing == 0 {
		return CursorState{}, nil
	}
	pos := image.Pt(int(ci.PtScreenPos.X), int(ci.PtScreenPos.Y))
	h, _, err := procCopyIcon.Call(ci.HCursor)
	if h == 0 {
		return CursorState{Visible: true, Position: pos}, fmt.Errorf("capture: CopyIcon failed winerr=%d", winerr(err))
	}
	return CursorState{Visible: true, Position: pos, Icon: &gdiIcon{h: h}}, nil
}

// gdiSurface owns a memory DC with a canvas-sized bitmap selected into it.
type gdiSurface struct {
	dc   memoryDC
	bmp  gdiObject
	sel  selection
	w, h int
}

func (s *gdiSurface) DrawIcon(icon Icon, at image.Point) error {
	ic, ok := icon.(*gdiIcon)
	if !ok || ic.h == 0 {
		return fmt.Errorf("capture: cannot draw icon of type %T", icon)
	}
	r, _, err := procDrawIconEx.Call(s.dc.h, i32(at.X), i32(at.Y), ic.h, 0, 0, 0, 0, diNormal)
	if r == 0 {
		return fmt.Errorf("capture: DrawIconEx failed at=%v winerr=%d", at, winerr(err))
	}
	return nil
}

// Extract reads the bitmap as a top-down 32-bit DIB and reorders BGRA to
// RGBA in place. The bitmap is deselected first as GetDIBits requires.
func (s *gdiSurface) Extract(dst []byte) error {
	if len(dst) != s.w*s.h*4 {
		return fmt.Errorf("capture: extract buffer len=%d want=%d: %w", len(dst), s.w*s.h*4, ErrExtraction)
	}
	s.sel.Release()

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(s.w)
	bi.Header.BiHeight = -int32(s.h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(len(dst))

	lines, _, err := procGetDIBits.Call(s.dc.h, s.bmp.h, 0, uintptr(s.h),
		uintptr(unsafe.Pointer(&dst[0])), uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if int(lines) != s.h {
		return fmt.Errorf("capture: GetDIBits copied %d of %d lines winerr=%d: %w", lines, s.h, winerr(err), ErrExtraction)
	}
	return swapRB(dst, dst)
}

func (s *gdiSurface) Release() {
	s.sel.Release()
	s.bmp.Release()
	s.dc.Release()
}

// gdiIcon is a CopyIcon duplicate destroyed on Release.
type gdiIcon struct{ h uintptr }

// Hotspot queries GetIconInfo and frees the mask and colour bitmaps it
// hands back before returning.
func (ic *gdiIcon) Hotspot() (image.Point, error) {
	var ii iconInfo
	ok, _, err := procGetIconInfo.Call(ic.h, uintptr(unsafe.Pointer(&ii)))
	if ok == 0 {
		return image.Point{}, fmt.Errorf("capture: GetIconInfo failed winerr=%d", winerr(err))
	}
	mask := gdiObject{h: ii.HbmMask}
	defer mask.Release()
	color := gdiObject{h: ii.HbmColor}
	defer color.Release()
	return image.Pt(int(ii.XHotspot), int(ii.YHotspot)), nil
}

func (ic *gdiIcon) Release() {
	if ic.h != 0 {
		_, _, _ = procDestroyIcon.Call(ic.h)
		ic.h = 0
	}
}

// screenDC is the desktop device context from GetDC(NULL).
type screenDC struct{ h uintptr }

func acquireScreenDC() (*screenDC, error) {
	h, _, err := procGetDC.Call(0)
	if h == 0 {
		return nil, fmt.Errorf("capture: GetDC failed winerr=%d: %w", winerr(err), ErrSurfaceAllocation)
	}
	return &screenDC{h: h}, nil
}

func (d *screenDC) Release() {
	if d.h != 0 {
		_, _, _ = procReleaseDC.Call(0, d.h)
		d.h = 0
	}
}

type memoryDC struct{ h uintptr }

func (d *memoryDC) Release() {
	if d.h != 0 {
		_, _, _ = procDeleteDC.Call(d.h)
		d.h = 0
	}
}

type gdiObject struct{ h uintptr }

func (o *gdiObject) Release() {
	if o.h != 0 {
		_, _, _ = procDeleteObject.Call(o.h)
		o.h = 0
	}
}

// selection restores the object that was selected into dc before ours.
type selection struct{ dc, prev uintptr }

func (s *selection) Release() {
	if s.prev != 0 {
		_, _, _ = procSelectObject.Call(s.dc, s.prev)
		s.prev = 0
	}
}

func getSystemMetric(idx int) int32 {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return int32(v)
}

// i32 passes a signed coordinate through a uintptr syscall argument.
func i32(v int) uintptr { return uintptr(int32(v)) }

func winerr(err error) uint32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
