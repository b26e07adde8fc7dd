//go:build !windows

package capture

// X11 development backend. Geometry, pointer state and pixels come straight
// from the X server over the backend's own connection (RandR, QueryPointer,
// XFixes, GetImage) and are composited in Go memory. The screenshot library
// is only a fallback for root visuals GetImage cannot decode; it dials a new
// X connection per call.

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/vova616/screenshot"
)

type x11Backend struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	randr   bool
	xfixes  bool
	capture func(image.Rectangle) (*image.RGBA, error)
}

// NewBackend connects to $DISPLAY. Missing RandR falls back to the root
// window geometry; missing XFixes disables the cursor overlay.
func NewBackend() (Backend, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("capture: x11 connect: %w", err)
	}
	b := &x11Backend{xu: xu, root: xu.RootWin()}
	b.capture = b.captureRect
	b.randr = randr.Init(xu.Conn()) == nil
	if xfixes.Init(xu.Conn()) == nil {
		// XFixes refuses requests until a version has been negotiated.
		_, err := xfixes.QueryVersion(xu.Conn(), 4, 0).Reply()
		b.xfixes = err == nil
	}
	return b, nil
}

// Close disconnects from the X server.
func (b *x11Backend) Close() error {
	b.xu.Conn().Close()
	return nil
}

func (b *x11Backend) DesktopBounds() (image.Rectangle, error) {
	if b.randr {
		if r, ok := b.monitorUnion(); ok {
			return r, nil
		}
	}
	geom, err := xproto.GetGeometry(b.xu.Conn(), xproto.Drawable(b.root)).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("capture: root geometry: %v: %w", err, ErrDesktopQuery)
	}
	if geom.Width == 0 || geom.Height == 0 {
		return image.Rectangle{}, fmt.Errorf("capture: empty root window: %w", ErrDesktopQuery)
	}
	return image.Rect(0, 0, int(geom.Width), int(geom.Height)), nil
}

// monitorUnion returns the bounding box of every active CRTC.
func (b *x11Backend) monitorUnion() (image.Rectangle, bool) {
	resources, err := randr.GetScreenResources(b.xu.Conn(), b.root).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	var union image.Rectangle
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(b.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		union = union.Union(image.Rect(int(info.X), int(info.Y), int(info.X)+int(info.Width), int(info.Y)+int(info.Height)))
	}
	return union, !union.Empty()
}

func (b *x11Backend) PointerPosition() (image.Point, error) {
	pointer, err := xproto.QueryPointer(b.xu.Conn(), b.root).Reply()
	if err != nil {
		return image.Point{}, fmt.Errorf("capture: query pointer: %w", err)
	}
	return image.Pt(int(pointer.RootX), int(pointer.RootY)), nil
}

func (b *x11Backend) Grab(req CaptureRequest) (Surface, error) {
	if req.Canvas.X <= 0 || req.Canvas.Y <= 0 {
		return nil, fmt.Errorf("capture: invalid canvas %v: %w", req.Canvas, ErrSurfaceAllocation)
	}
	img, err := b.capture(req.Source)
	if err != nil {
		return nil, fmt.Errorf("capture: x11 capture rect=%v: %v: %w", req.Source, err, ErrCaptureTransfer)
	}
	s := NewRGBASurface(req.Canvas)
	s.Blit(img, req.DestOffset)
	return s, nil
}

// captureRect reads r from the root window on the shared connection.
func (b *x11Backend) captureRect(r image.Rectangle) (*image.RGBA, error) {
	reply, err := xproto.GetImage(b.xu.Conn(), xproto.ImageFormatZPixmap, xproto.Drawable(b.root),
		int16(r.Min.X), int16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()), 0xFFFFFFFF).Reply()
	if err != nil {
		return nil, err
	}
	img, err := zpixmapToRGBA(reply.Data, reply.Depth, r.Dx(), r.Dy())
	if err != nil {
		return screenshot.CaptureRect(r)
	}
	return img, nil
}

// zpixmapToRGBA converts a 24/32-bit little-endian ZPixmap (BGRX rows with
// no padding) into opaque RGBA.
func zpixmapToRGBA(data []byte, depth byte, w, h int) (*image.RGBA, error) {
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("capture: unsupported x11 depth %d: %w", depth, ErrExtraction)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := swapRB(img.Pix, data); err != nil {
		return nil, err
	}
	return img, nil
}

func (b *x11Backend) Cursor() (CursorState, error) {
	if !b.xfixes {
		return CursorState{}, nil
	}
	reply, err := xfixes.GetCursorImage(b.xu.Conn()).Reply()
	if err != nil {
		return CursorState{}, fmt.Errorf("capture: xfixes cursor image: %w", err)
	}
	if reply.Width == 0 || reply.Height == 0 {
		return CursorState{}, nil
	}
	icon := &x11Icon{
		img:     argbToRGBA(reply.CursorImage, int(reply.Width), int(reply.Height)),
		hotspot: image.Pt(int(reply.Xhot), int(reply.Yhot)),
	}
	return CursorState{Visible: true, Position: image.Pt(int(reply.X), int(reply.Y)), Icon: icon}, nil
}

// x11Icon is a copy of the server cursor; nothing native to free.
type x11Icon struct {
	img     *image.RGBA
	hotspot image.Point
}

func (ic *x11Icon) Hotspot() (image.Point, error) { return ic.hotspot, nil }
func (ic *x11Icon) Image() image.Image            { return ic.img }
func (ic *x11Icon) Release()                      {}

// argbToRGBA unpacks XFixes cursor pixels (premultiplied 0xAARRGGBB) into an
// image.RGBA, which is premultiplied as well.
func argbToRGBA(pixels []uint32, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	n := min(len(pixels), w*h)
	for i := 0; i < n; i++ {
		p := pixels[i]
		o := i * 4
		img.Pix[o+0] = uint8(p >> 16)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p)
		img.Pix[o+3] = uint8(p >> 24)
	}
	return img
}
