package capture

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// CaptureService runs a Loop in the background. Use NewCaptureService to
// construct an instance.
type CaptureService interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
	Stats() CaptureStats
}

type captureService struct {
	loop    *Loop
	logger  *slog.Logger
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCaptureService wraps loop in a start/stop lifecycle.
func NewCaptureService(loop *Loop, logger *slog.Logger) CaptureService {
	return &captureService{loop: loop, logger: logger}
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Stats() CaptureStats { return s.loop.Stats() }

// Start launches the loop. Calling Start on a running service is a no-op.
func (s *captureService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)
	go func(done chan struct{}) {
		defer close(done)
		defer s.running.Store(false)
		defer recoverLog(s.logger, "capture loop panic")
		s.loop.Run(ctx)
	}(s.done)
}

// Stop cancels the loop and waits for the in-flight iteration to return.
func (s *captureService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
