package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/cursorcast-go/debug"
	"github.com/soocke/cursorcast-go/domain/capture"
)

// App runs the capture service and its frame consumer until cancelled.
type App struct {
	c      *AppContainer
	logger *slog.Logger
}

// NewApp wraps an assembled container.
func NewApp(c *AppContainer) *App {
	return &App{c: c, logger: c.Logger}
}

// Run starts capturing and blocks until ctx is done or a consumer fails.
func (a *App) Run(ctx context.Context) error {
	cfg := a.c.Config
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Debug {
		debug.StartMemLogger(gctx, cfg.StatsInterval(), a.logger)
		debug.StartGoroutineLogger(gctx, cfg.StatsInterval(), a.logger)
	}

	a.c.CaptureSvc.Start(gctx)
	a.logger.Info("capture started",
		"canvas_w", cfg.CanvasWidth,
		"canvas_h", cfg.CanvasHeight,
		"interval", cfg.FrameInterval(),
	)
	g.Go(func() error {
		<-gctx.Done()
		a.c.CaptureSvc.Stop()
		stats := a.c.CaptureSvc.Stats()
		a.logger.Info("capture stopped",
			"frames", stats.Frames,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
			"behind", stats.BehindSchedule,
		)
		return nil
	})

	if a.c.Preview != nil {
		g.Go(func() error { return a.c.Preview.Consume(gctx, a.c.Frames) })
		g.Go(func() error { return a.c.Preview.ListenAndServe(gctx, cfg.PreviewAddr) })
	} else {
		g.Go(func() error { return drain(gctx, a.c.Frames, a.logger) })
	}
	return g.Wait()
}

// drain receives frames when no other consumer is configured so the loop
// keeps its cadence.
func drain(ctx context.Context, frames <-chan capture.Frame, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-frames:
			logger.Debug("frame", "tx", f.TxID, "bytes", len(f.Pixels))
		}
	}
}
