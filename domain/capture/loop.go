package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// Loop captures, encodes and delivers one frame per Step and paces itself to
// a fixed interval. Step must not be called concurrently.
type Loop struct {
	backend  Backend
	out      chan<- Frame
	canvas   image.Point
	interval time.Duration
	logger   *slog.Logger

	txID         atomic.Uint32
	frames       atomic.Uint64
	skipped      atomic.Uint64
	failed       atomic.Uint64
	behind       atomic.Uint64
	captureNanos atomic.Uint64
	lastFrame    atomic.Int64

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration)
}

// LoopOption customises a Loop.
type LoopOption func(*Loop)

// WithCanvas sets the output frame size.
func WithCanvas(canvas image.Point) LoopOption {
	return func(l *Loop) {
		if canvas.X > 0 && canvas.Y > 0 {
			l.canvas = canvas
		}
	}
}

// WithInterval sets the target frame duration.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop builds a loop that delivers frames to out. The caller owns out.
func NewLoop(b Backend, out chan<- Frame, opts ...LoopOption) *Loop {
	l := &Loop{
		backend:  b,
		out:      out,
		canvas:   DefaultCanvas,
		interval: DefaultFrameInterval,
		now:      time.Now,
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Canvas returns the configured output size.
func (l *Loop) Canvas() image.Point { return l.canvas }

type captureResult struct {
	pix []byte
	err error
}

// Step performs one full iteration. Capture errors are returned without
// pacing; cancellation while dispatching returns ctx.Err() without pacing.
func (l *Loop) Step(ctx context.Context) error {
	start := l.now()

	res := <-l.capture()
	if res.err != nil {
		if Skippable(res.err) {
			l.skipped.Add(1)
		} else {
			l.failed.Add(1)
		}
		return res.err
	}
	captured := l.now().Sub(start)

	frame := Frame{
		TxID:       l.txID.Add(1),
		Width:      l.canvas.X,
		Height:     l.canvas.Y,
		Pixels:     res.pix,
		CapturedAt: l.now(),
	}
	select {
	case l.out <- frame:
	case <-ctx.Done():
		return ctx.Err()
	}
	// Only delivered frames count towards the capture average.
	l.frames.Add(1)
	l.captureNanos.Add(uint64(captured.Nanoseconds()))
	l.lastFrame.Store(frame.CapturedAt.UnixNano())

	l.pace(ctx, start)
	return nil
}

// capture runs the blocking native work on its own locked OS thread and
// hands the result back through a one-shot channel.
func (l *Loop) capture() <-chan captureResult {
	done := make(chan captureResult, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() {
			if r := recover(); r != nil {
				if l.logger != nil {
					l.logger.Error("capture worker panic", "error", r, "stack", string(debug.Stack()))
				}
				done <- captureResult{err: fmt.Errorf("capture: worker panic: %v", r)}
			}
		}()
		pix, err := CaptureFrame(l.backend, l.canvas, l.logger)
		done <- captureResult{pix: pix, err: err}
	}()
	return done
}

// pace sleeps for whatever is left of the frame interval. A late iteration
// proceeds immediately rather than dropping frames to catch up.
func (l *Loop) pace(ctx context.Context, start time.Time) {
	elapsed := l.now().Sub(start)
	if elapsed < l.interval {
		l.wait(ctx, l.interval-elapsed)
		return
	}
	l.behind.Add(1)
}

// Run calls Step until ctx is done. Iteration failures are logged and the
// next cycle proceeds; they never end the loop.
func (l *Loop) Run(ctx context.Context) {
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	for ctx.Err() == nil {
		start := l.now()
		if err := l.Step(ctx); err != nil && ctx.Err() == nil {
			l.logFailure(err)
			l.pace(ctx, start)
		}

		select {
		case <-logTicker.C:
			l.logStats()
		default:
		}
	}
}

func (l *Loop) logFailure(err error) {
	if l.logger == nil {
		return
	}
	if Skippable(err) {
		l.logger.Debug("capture skipped", "error", err)
		return
	}
	l.logger.Error("capture failed", "error", err)
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() CaptureStats {
	frames := l.frames.Load()
	total := l.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if frames > 0 && total > 0 {
		avg = time.Duration(total / frames)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	age := time.Duration(0)
	if ns := l.lastFrame.Load(); ns != 0 {
		last = time.Unix(0, ns)
		age = l.now().Sub(last)
	}
	return CaptureStats{
		Frames:           frames,
		Skipped:          l.skipped.Load(),
		Failed:           l.failed.Load(),
		BehindSchedule:   l.behind.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastFrame:        last,
		LastFrameAge:     age,
		LastTxID:         l.txID.Load(),
	}
}

func (l *Loop) logStats() {
	if l.logger == nil {
		return
	}
	stats := l.Stats()
	l.logger.Debug("capture.stats",
		"frames", stats.Frames,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"behind", stats.BehindSchedule,
		"avg_capture", stats.AvgCapture,
		"age", stats.LastFrameAge,
	)
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
