package capture

import (
	"context"
	"image"
	"testing"
	"time"
)

func TestCaptureService_StartStop(t *testing.T) {
	out := make(chan Frame, 1)
	loop := NewLoop(newFakeBackend(), out, WithCanvas(image.Pt(8, 8)), WithInterval(time.Millisecond))
	svc := NewCaptureService(loop, discardLogger)

	if svc.Running() {
		t.Fatalf("service running before Start")
	}
	svc.Start(context.Background())
	svc.Start(context.Background()) // no-op

	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered")
	}
	if !svc.Running() {
		t.Fatalf("service not running after Start")
	}

	svc.Stop()
	if svc.Running() {
		t.Fatalf("service still running after Stop")
	}
	svc.Stop()

	if svc.Stats().Frames == 0 {
		t.Fatalf("stats not reported")
	}
}

func TestCaptureService_ParentCancelStopsLoop(t *testing.T) {
	loop := NewLoop(newFakeBackend(), make(chan Frame), WithInterval(time.Millisecond))
	svc := NewCaptureService(loop, nil)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("loop still running after parent cancel")
		}
		time.Sleep(time.Millisecond)
	}
	svc.Stop()
}
