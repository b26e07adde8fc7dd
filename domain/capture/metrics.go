package capture

import "time"

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Frames           uint64
	Skipped          uint64
	Failed           uint64
	BehindSchedule   uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastFrame        time.Time
	LastFrameAge     time.Duration
	LastTxID         uint32
}
