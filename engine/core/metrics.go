package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/tesseract/engine/containers"
)

const AVG_COUNT int = 30

// MetricsState keeps a rolling window of frame times.
type MetricsState struct {
	frameTimes         *containers.RingQueue[float64]
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

var (
	metricsState *MetricsState = nil
	// Guards metricsState; the fps reporter reads it from its own goroutine.
	metricsMu sync.Mutex
)

func MetricsInitialize() error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsState = &MetricsState{
		frameTimes: containers.NewRingQueue[float64](AVG_COUNT),
	}
	return nil
}

func MetricsUpdate(frameElapsedTime float64) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return
	}
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	metricsState.frameTimes.Push(frameMS)
	if metricsState.frameTimes.IsFull() {
		sum := 0.0
		metricsState.frameTimes.Each(func(ms float64) { sum += ms })
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	// Count all Frames.
	metricsState.Frames++
}

func MetricsFPS() float64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.MSavg
}

/**
 * @brief FPSCalculator counts presented frames and reports the rate since the
 * previous report. Safe to use from the render loop and a reporting goroutine.
 */
type FPSCalculator struct {
	mu     sync.Mutex
	now    func() time.Time
	last   time.Time
	frames uint64
}

func NewFPSCalculator(now func() time.Time) *FPSCalculator {
	if now == nil {
		now = time.Now
	}
	return &FPSCalculator{now: now, last: now()}
}

// Count records one frame.
func (f *FPSCalculator) Count() {
	f.mu.Lock()
	f.frames++
	f.mu.Unlock()
}

// FPS returns frames per second since the last call and restarts the window.
func (f *FPSCalculator) FPS() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.now()
	elapsed := t.Sub(f.last).Seconds()
	frames := f.frames
	f.frames = 0
	f.last = t
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / elapsed
}

// ReportFPS logs the frame rate at every interval until done is closed.
func ReportFPS(f *FPSCalculator, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			LogInfo("fps: %.1f (frame %.2f ms)", f.FPS(), MetricsFrameTime())
		}
	}
}
