package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/chunker"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/optimizer"
)

func newTestScheduler() *Scheduler {
	return New(chunker.New(), optimizer.New(), bandwidth.New())
}

func TestExecuteReturnsResultsSortedByIndex(t *testing.T) {
	s := newTestScheduler()
	const total = 5 * 1024 * 1024

	downloader := func(ctx context.Context, plan model.ChunkPlan) model.ChunkResult {
		return model.ChunkResult{
			Index:   plan.Index,
			Start:   plan.Start,
			End:     plan.End,
			Data:    make([]byte, plan.Size()),
			Elapsed: time.Millisecond,
			Status:  model.ChunkOK,
		}
	}

	results := s.Execute(context.Background(), total, 0, downloader, nil)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("results not sorted by index: position %d has index %d", i, r.Index)
		}
	}

	var sum int64
	for _, r := range results {
		sum += r.End - r.Start + 1
	}
	if sum != total {
		t.Fatalf("sum of chunk sizes = %d, want %d", sum, total)
	}
}

func TestExecuteProgressIsMonotonic(t *testing.T) {
	s := newTestScheduler()
	const total = 5 * 1024 * 1024

	downloader := func(ctx context.Context, plan model.ChunkPlan) model.ChunkResult {
		return model.ChunkResult{
			Index: plan.Index, Start: plan.Start, End: plan.End,
			Elapsed: time.Millisecond, Status: model.ChunkOK,
		}
	}

	var last int64
	var violated int32
	onProgress := func(done, total int64) {
		if done < atomic.LoadInt64(&last) {
			atomic.StoreInt32(&violated, 1)
		}
		atomic.StoreInt64(&last, done)
	}

	s.Execute(context.Background(), total, 0, downloader, onProgress)
	if violated != 0 {
		t.Fatal("progress went backwards")
	}
}

func TestExecuteEmptyPlanReturnsNil(t *testing.T) {
	s := newTestScheduler()
	results := s.Execute(context.Background(), 0, 0, nil, nil)
	if results != nil {
		t.Fatalf("expected nil results for empty plan, got %v", results)
	}
}

func TestExecutePropagatesFailedResults(t *testing.T) {
	s := newTestScheduler()
	const total = 2 * 1024 * 1024

	downloader := func(ctx context.Context, plan model.ChunkPlan) model.ChunkResult {
		return model.ChunkResult{
			Index: plan.Index, Start: plan.Start, End: plan.End,
			Status: model.ChunkFailed, Err: "boom",
		}
	}

	results := s.Execute(context.Background(), total, 0, downloader, nil)
	for _, r := range results {
		if r.Status != model.ChunkFailed {
			t.Fatalf("expected all results failed, got status %v", r.Status)
		}
		if r.Err != "boom" {
			t.Fatalf("error message lost: %q", r.Err)
		}
	}
}
