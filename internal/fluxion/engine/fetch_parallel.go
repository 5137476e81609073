package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/chunker"
	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/optimizer"
	"github.com/fluxion-dl/fluxion/internal/fluxion/scheduler"
)

// fetchParallel runs a Scheduler-driven ranged-GET download with per-chunk
// retry, followed by an index-ordered write pass keyed by each chunk's
// start offset.
func (e *Engine) fetchParallel(
	ctx context.Context,
	req model.FetchRequest,
	headers map[string]string,
	probe model.ProbeResult,
	offset int64,
	outputPath string,
	bw *bandwidth.Estimator,
	onProgress scheduler.ProgressFunc,
) (int64, error) {
	c := chunker.New()
	o := optimizer.New()
	sched := scheduler.New(c, o, bw)
	sched.Metrics = e.metrics

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = retryDefaultMaxRetries
	}

	downloader := func(ctx context.Context, plan model.ChunkPlan) model.ChunkResult {
		var lastErr error
		for attempt := 1; attempt <= maxRetries+1; attempt++ {
			data, status, err := e.getRange(ctx, req.URL, headers, plan.Start, plan.End)
			if err == nil && status == http.StatusPartialContent {
				return model.ChunkResult{Index: plan.Index, Start: plan.Start, End: plan.End, Data: data, Status: model.ChunkOK}
			}

			var decision model.RetryDecision
			if err != nil {
				lastErr = err
				decision = e.retry.ClassifyException(err, attempt)
			} else {
				lastErr = fmt.Errorf("unexpected status %d", status)
				decision = e.retry.ClassifyStatus(status, attempt)
			}
			if decision.Verdict == model.RetryFatal || !e.retry.ShouldRetry(decision, attempt) {
				break
			}
			e.metrics.Retries.WithLabelValues(decision.Verdict.String()).Inc()
			if decision.Delay > 0 {
				time.Sleep(decision.Delay)
			}
		}
		msg := "chunk download exhausted retries"
		if lastErr != nil {
			msg = lastErr.Error()
		}
		e.metrics.ChunkFailures.Inc()
		return model.ChunkResult{Index: plan.Index, Start: plan.Start, End: plan.End, Status: model.ChunkFailed, Err: msg}
	}

	results := sched.Execute(ctx, probe.ContentLength, offset, downloader, onProgress)

	var failed []model.ChunkResult
	for _, r := range results {
		if r.Status == model.ChunkFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		return 0, fluxerr.Newf(fluxerr.Network, "%d of %d chunks failed (first error: %s)", len(failed), len(results), failed[0].Err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	flags := os.O_WRONLY | os.O_CREATE
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(outputPath, flags, 0o644)
	if err != nil {
		return 0, fluxerr.Newf(fluxerr.Network, "cannot open %s for writing", outputPath).WithCause(err)
	}
	defer f.Close()

	var total int64
	for _, r := range results {
		if _, err := f.WriteAt(r.Data, r.Start); err != nil {
			return total, fluxerr.Newf(fluxerr.Network, "cannot write chunk at offset %d", r.Start).WithCause(err)
		}
		total += r.End - r.Start + 1
	}
	return total, nil
}

const retryDefaultMaxRetries = 3

// getRange issues one ranged GET and returns the body bytes and status.
func (e *Engine) getRange(ctx context.Context, rawURL string, headers map[string]string, start, end int64) ([]byte, int, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := e.clients.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		drainAndClose(resp)
		return nil, resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}
