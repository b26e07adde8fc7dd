package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/soocke/cursorcast-go/config"
	"github.com/soocke/cursorcast-go/domain/capture"
)

var discardLogger = slog.New(slog.NewTextHandler(discardWriter{}, nil))

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// stubBackend serves a uniform blue desktop with a hidden pointer.
type stubBackend struct {
	closed bool
}

func (b *stubBackend) DesktopBounds() (image.Rectangle, error) {
	return image.Rect(0, 0, 1920, 1080), nil
}

func (b *stubBackend) PointerPosition() (image.Point, error) {
	return image.Pt(960, 540), nil
}

func (b *stubBackend) Cursor() (capture.CursorState, error) {
	return capture.CursorState{}, nil
}

func (b *stubBackend) Close() error {
	b.closed = true
	return nil
}

func (b *stubBackend) Grab(req capture.CaptureRequest) (capture.Surface, error) {
	s := capture.NewRGBASurface(req.Canvas)
	src := image.NewRGBA(image.Rectangle{Max: req.Source.Size()})
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+2], src.Pix[i+3] = 0xFF, 0xFF
	}
	s.Blit(src, req.DestOffset)
	return s, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.CanvasWidth, cfg.CanvasHeight = 32, 18
	cfg.FrameIntervalMS = 1
	return cfg
}

func TestBuildContainer_FactoryError(t *testing.T) {
	want := errors.New("no display")
	_, err := BuildContainer(testConfig(), discardLogger, func() (capture.Backend, error) { return nil, want })
	if !errors.Is(err, want) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestBuildContainer_WiresPreviewOnlyWhenConfigured(t *testing.T) {
	b := &stubBackend{}
	factory := func() (capture.Backend, error) { return b, nil }
	c, err := BuildContainer(testConfig(), discardLogger, factory)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Preview != nil {
		t.Fatalf("preview built without address")
	}
	if c.Loop.Canvas() != image.Pt(32, 18) {
		t.Fatalf("canvas not applied: %v", c.Loop.Canvas())
	}
	if err := c.Close(); err != nil || !b.closed {
		t.Fatalf("backend not closed: %v", err)
	}

	cfg := testConfig()
	cfg.PreviewAddr = "127.0.0.1:0"
	c, err = BuildContainer(cfg, discardLogger, factory)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Preview == nil {
		t.Fatalf("preview missing")
	}
}

func TestApp_RunCapturesUntilCancelled(t *testing.T) {
	c, err := BuildContainer(testConfig(), discardLogger, func() (capture.Backend, error) { return &stubBackend{}, nil })
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewApp(c).Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.CaptureSvc.Stats().Frames < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("no frames delivered")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}
	if c.CaptureSvc.Running() {
		t.Fatalf("capture still running")
	}
}

func TestSnapshot_WritesPNGAndBMP(t *testing.T) {
	dir := t.TempDir()
	blue := color.RGBA{B: 0xFF, A: 0xFF}
	for _, name := range []string{"shot.png", "shot.bmp"} {
		path := filepath.Join(dir, name)
		if err := Snapshot(&stubBackend{}, image.Pt(32, 18), path, discardLogger); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		var img image.Image
		if filepath.Ext(name) == ".bmp" {
			img, err = bmp.Decode(f)
		} else {
			img, err = png.Decode(f)
		}
		f.Close()
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 18 {
			t.Fatalf("%s: unexpected bounds %v", name, b)
		}
		if got := color.RGBAModel.Convert(img.At(16, 9)).(color.RGBA); got != blue {
			t.Fatalf("%s: unexpected centre pixel %v", name, got)
		}
	}
}
