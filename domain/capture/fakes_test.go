package capture

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var (
	desktopRed = color.RGBA{R: 255, A: 255}
	iconGreen  = color.RGBA{G: 255, A: 255}
)

type fakeIcon struct {
	hot      image.Point
	hotErr   error
	img      *image.RGBA
	released int
}

func newFakeIcon(w, h int, hot image.Point) *fakeIcon {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = iconGreen.R, iconGreen.G, iconGreen.B, iconGreen.A
	}
	return &fakeIcon{hot: hot, img: img}
}

func (i *fakeIcon) Hotspot() (image.Point, error) { return i.hot, i.hotErr }
func (i *fakeIcon) Image() image.Image            { return i.img }
func (i *fakeIcon) Release()                      { i.released++ }

type fakeSurface struct {
	*RGBASurface
	released   int
	drawnAt    []image.Point
	extractErr error
}

func (s *fakeSurface) DrawIcon(icon Icon, at image.Point) error {
	s.drawnAt = append(s.drawnAt, at)
	return s.RGBASurface.DrawIcon(icon, at)
}

func (s *fakeSurface) Extract(dst []byte) error {
	if s.extractErr != nil {
		return s.extractErr
	}
	return s.RGBASurface.Extract(dst)
}

func (s *fakeSurface) Release() {
	s.released++
	s.RGBASurface.Release()
}

// fakeBackend paints the whole desktop desktopRed and records every call.
type fakeBackend struct {
	mu         sync.Mutex
	pointer    image.Point
	pointerErr error
	desktop    image.Rectangle
	desktopErr error
	grabErr    error
	extractErr error
	cursor     CursorState
	cursorErr  error
	onGrab     func()
	panicGrab  bool

	requests []CaptureRequest
	surfaces []*fakeSurface
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pointer: image.Pt(960, 540), desktop: image.Rect(0, 0, 1920, 1080)}
}

func (b *fakeBackend) setPointer(p image.Point) {
	b.mu.Lock()
	b.pointer = p
	b.mu.Unlock()
}

func (b *fakeBackend) DesktopBounds() (image.Rectangle, error) { return b.desktop, b.desktopErr }

func (b *fakeBackend) PointerPosition() (image.Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pointer, b.pointerErr
}

func (b *fakeBackend) Grab(req CaptureRequest) (Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.onGrab != nil {
		b.onGrab()
	}
	if b.panicGrab {
		panic("grab exploded")
	}
	if b.grabErr != nil {
		return nil, b.grabErr
	}
	src := image.NewUniform(desktopRed)
	s := &fakeSurface{RGBASurface: NewRGBASurface(req.Canvas), extractErr: b.extractErr}
	s.Blit(&boundedUniform{Uniform: src, r: image.Rectangle{Max: req.Source.Size()}}, req.DestOffset)
	b.surfaces = append(b.surfaces, s)
	return s, nil
}

func (b *fakeBackend) Cursor() (CursorState, error) { return b.cursor, b.cursorErr }

func (b *fakeBackend) grabs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// boundedUniform is a uniform colour with finite bounds so Blit knows its size.
type boundedUniform struct {
	*image.Uniform
	r image.Rectangle
}

func (u *boundedUniform) Bounds() image.Rectangle { return u.r }

// fakeClock advances only when told to.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// waitRecorder replaces the pacing sleep.
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(_ context.Context, d time.Duration) {
	w.mu.Lock()
	w.waits = append(w.waits, d)
	w.mu.Unlock()
}

func (w *waitRecorder) calls() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.waits...)
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}
