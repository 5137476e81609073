// Package scheduler dispatches chunk downloads under a bounded-concurrency
// semaphore, feeding the chunker/bandwidth/optimizer and fanning progress
// out to the caller.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/chunker"
	"github.com/fluxion-dl/fluxion/internal/fluxion/metrics"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/optimizer"
)

// Downloader performs one chunk's range request and returns its terminal
// result. Per-chunk retry is the caller's responsibility: the Scheduler
// never retries and never returns an error itself.
type Downloader func(ctx context.Context, plan model.ChunkPlan) model.ChunkResult

// ProgressFunc is called after each successfully completed chunk with the
// cumulative completed bytes and the (possibly unknown, 0) total.
type ProgressFunc func(done, total int64)

// Scheduler is the bounded-concurrency chunk dispatcher.
type Scheduler struct {
	Chunker   *chunker.Chunker
	Optimizer *optimizer.Optimizer
	Bandwidth *bandwidth.Estimator
	// Metrics, if set, receives live active-worker and speed observations.
	Metrics *metrics.Recorder
}

// New builds a Scheduler around the given controllers.
func New(c *chunker.Chunker, o *optimizer.Optimizer, b *bandwidth.Estimator) *Scheduler {
	return &Scheduler{Chunker: c, Optimizer: o, Bandwidth: b}
}

// Execute plans all chunks for [offset, totalSize), dispatches them under a
// semaphore sized by Optimizer.SuggestConcurrency, and returns results
// sorted by index.
func (s *Scheduler) Execute(ctx context.Context, totalSize, offset int64, downloader Downloader, onProgress ProgressFunc) []model.ChunkResult {
	plans := s.Chunker.PlanChunks(totalSize, offset)
	if len(plans) == 0 {
		return nil
	}

	concurrency := s.Optimizer.SuggestConcurrency(totalSize)
	sem := semaphore.NewWeighted(int64(concurrency))

	var (
		mu             sync.Mutex
		results        = make([]model.ChunkResult, 0, len(plans))
		completedBytes int64
	)

	var wg sync.WaitGroup
	for _, plan := range plans {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled before this chunk could start; record a
			// failed result so callers can see it was never attempted.
			mu.Lock()
			results = append(results, model.ChunkResult{
				Index:  plan.Index,
				Start:  plan.Start,
				End:    plan.End,
				Status: model.ChunkFailed,
				Err:    ctx.Err().Error(),
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(plan model.ChunkPlan) {
			defer wg.Done()
			defer sem.Release(1)

			if s.Metrics != nil {
				s.Metrics.ActiveStreams.Inc()
				defer s.Metrics.ActiveStreams.Dec()
			}

			started := time.Now()
			result := downloader(ctx, plan)
			elapsed := time.Since(started)
			if result.Elapsed == 0 {
				result.Elapsed = elapsed
			}

			if result.Status == model.ChunkOK {
				n := result.End - result.Start + 1
				s.Chunker.Feedback(n, result.Elapsed)
				s.Bandwidth.Record(n, result.Elapsed)
				if result.Elapsed > 0 {
					s.Optimizer.ReportThroughput(float64(n) / result.Elapsed.Seconds())
				}
				if s.Metrics != nil {
					s.Metrics.SpeedBps.Set(s.Bandwidth.CurrentSpeed())
				}

				mu.Lock()
				completedBytes += n
				done := completedBytes
				mu.Unlock()
				if onProgress != nil {
					onProgress(done+offset, totalSize)
				}
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(plan)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}
