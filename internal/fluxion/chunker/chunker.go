// Package chunker plans byte-range chunks for a transfer and adapts the
// chunk size to observed throughput, growing chunks when throughput is
// healthy and shrinking them after failures or throttling.
package chunker

import (
	"sync"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

const (
	MinChunkSize     int64 = 256 * 1024
	MaxChunkSize     int64 = 16 * 1024 * 1024
	InitialChunkSize int64 = 1 * 1024 * 1024
	emaAlpha               = 0.3
)

// Chunker plans byte ranges and adapts its current chunk size from
// throughput feedback. Safe for concurrent feedback from scheduler workers.
type Chunker struct {
	mu             sync.Mutex
	min, max       int64
	currentSize    int64
	emaThroughput  float64 // bytes/sec, 0 until first feedback
}

// New returns a Chunker seeded at InitialChunkSize.
func New() *Chunker {
	return &Chunker{
		min:         MinChunkSize,
		max:         MaxChunkSize,
		currentSize: InitialChunkSize,
	}
}

// CurrentSize returns the chunk size that would be used for the next plan.
func (c *Chunker) CurrentSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// PlanChunks partitions [offset, totalSize) into the unique contiguous,
// non-overlapping, densely-indexed set of chunks at the chunker's current
// size. Returns nil for totalSize == 0 or offset >= totalSize.
func (c *Chunker) PlanChunks(totalSize, offset int64) []model.ChunkPlan {
	if totalSize <= 0 || offset >= totalSize {
		return nil
	}

	size := c.CurrentSize()

	var plans []model.ChunkPlan
	start := offset
	index := 0
	for start < totalSize {
		end := start + size - 1
		if end >= totalSize {
			end = totalSize - 1
		}
		plans = append(plans, model.ChunkPlan{Index: index, Start: start, End: end})
		start = end + 1
		index++
	}
	return plans
}

// Feedback reports a successful chunk's observed throughput. Compares it
// against the running EMA throughput (seeding the EMA on first call) and
// doubles the current size (capped at max) when the observation is at
// least as fast as the EMA, otherwise halves it (floored at min).
func (c *Chunker) Feedback(bytesTransferred int64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	observed := float64(bytesTransferred) / elapsed.Seconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.emaThroughput == 0 {
		c.emaThroughput = observed
	} else {
		c.emaThroughput = emaAlpha*observed + (1-emaAlpha)*c.emaThroughput
	}

	if observed >= c.emaThroughput {
		c.currentSize *= 2
		if c.currentSize > c.max {
			c.currentSize = c.max
		}
	} else {
		c.currentSize /= 2
		if c.currentSize < c.min {
			c.currentSize = c.min
		}
	}
}
