package app

import (
	"image"
	"io"
	"log/slog"

	"github.com/soocke/cursorcast-go/config"
	"github.com/soocke/cursorcast-go/domain/capture"
	"github.com/soocke/cursorcast-go/preview"
)

// AppContainer assembles the backend, the capture loop and its consumers.
type AppContainer struct {
	Config     *config.Config
	Logger     *slog.Logger
	Backend    capture.Backend
	Frames     chan capture.Frame
	Loop       *capture.Loop
	CaptureSvc capture.CaptureService
	Preview    *preview.Server // nil when no preview address is configured
}

// BackendFactory opens the native capture backend.
type BackendFactory func() (capture.Backend, error)

// BuildContainer constructs all components. The only side effect is opening
// the backend.
func BuildContainer(cfg *config.Config, logger *slog.Logger, newBackend BackendFactory) (*AppContainer, error) {
	backend, err := newBackend()
	if err != nil {
		return nil, err
	}
	c := &AppContainer{Config: cfg, Logger: logger, Backend: backend}
	c.Frames = make(chan capture.Frame, cfg.QueueSize)
	c.Loop = capture.NewLoop(backend, c.Frames,
		capture.WithCanvas(image.Pt(cfg.CanvasWidth, cfg.CanvasHeight)),
		capture.WithInterval(cfg.FrameInterval()),
		capture.WithLogger(logger),
	)
	c.CaptureSvc = capture.NewCaptureService(c.Loop, logger)
	if cfg.PreviewAddr != "" {
		c.Preview = preview.NewServer(logger)
	}
	return c, nil
}

// Close releases the backend connection if it holds one.
func (c *AppContainer) Close() error {
	if closer, ok := c.Backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
