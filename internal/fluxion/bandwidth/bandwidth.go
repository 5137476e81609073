// Package bandwidth smooths instantaneous transfer speed and computes ETA
// from a ring buffer of recent samples, an EMA current speed, and a
// cumulative average speed.
package bandwidth

import (
	"fmt"
	"sync"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

const (
	DefaultWindowSize = 30
	emaAlpha          = 0.3
)

// Estimator tracks smoothed speed and cumulative throughput for one
// transfer. Safe for concurrent Record calls.
type Estimator struct {
	mu         sync.Mutex
	window     []model.SpeedSample
	windowSize int

	emaSpeed    float64
	totalBytes  int64
	firstRecord time.Time
	haveFirst   bool
}

// New returns an Estimator with Fluxion's default window size.
func New() *Estimator {
	return &Estimator{windowSize: DefaultWindowSize}
}

// Record reports one observation: bytesCount transferred over elapsed.
func (e *Estimator) Record(bytesCount int64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.haveFirst {
		e.firstRecord = now
		e.haveFirst = true
	}

	e.window = append(e.window, model.SpeedSample{Bytes: bytesCount, Elapsed: elapsed, Timestamp: now})
	if len(e.window) > e.windowSize {
		e.window = e.window[len(e.window)-e.windowSize:]
	}

	observed := float64(bytesCount) / elapsed.Seconds()
	if e.emaSpeed == 0 {
		e.emaSpeed = observed
	} else {
		e.emaSpeed = emaAlpha*observed + (1-emaAlpha)*e.emaSpeed
	}

	e.totalBytes += bytesCount
}

// CurrentSpeed returns the EMA speed in bytes/sec.
func (e *Estimator) CurrentSpeed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emaSpeed
}

// AverageSpeed returns cumulative bytes divided by wall-clock time since
// the first Record call.
func (e *Estimator) AverageSpeed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.haveFirst {
		return 0
	}
	elapsed := time.Since(e.firstRecord).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(e.totalBytes) / elapsed
}

// TotalBytes returns cumulative bytes recorded.
func (e *Estimator) TotalBytes() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalBytes
}

// ETASeconds returns remaining/current_speed, or 0 (undefined) when either
// is non-positive.
func (e *Estimator) ETASeconds(remaining int64) float64 {
	speed := e.CurrentSpeed()
	if remaining <= 0 || speed <= 0 {
		return 0
	}
	return float64(remaining) / speed
}

// FormatSpeed renders bps as a human string, e.g. "4.2 MB/s".
func FormatSpeed(bps float64) string {
	const unit = 1024.0
	if bps < unit {
		return fmt.Sprintf("%.1f B/s", bps)
	}
	div, exp := unit, 0
	for n := bps / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KB/s", "MB/s", "GB/s", "TB/s"}
	return fmt.Sprintf("%.1f %s", bps/div, suffixes[exp])
}
