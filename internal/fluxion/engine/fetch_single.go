package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/integrity"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

const singleStreamWriteSize = 64 * 1024

// fetchSingle downloads a resource over one HTTP stream when parallel
// ranges aren't available or weren't selected. By default every retry
// truncates and restarts; when req.RetryPreservesPartial is set, a retry
// instead resumes from however many bytes were already written, falling
// back to a full restart if the server rejects the resumed range.
func (e *Engine) fetchSingle(
	ctx context.Context,
	req model.FetchRequest,
	headers map[string]string,
	outputPath string,
	offset int64,
	bw *bandwidth.Estimator,
	onProgress func(done, total int64),
) (int64, string, error) {
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = retryDefaultMaxRetries
	}

	var written int64
	var lastErr error

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		resumeFrom := int64(0)
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if req.RetryPreservesPartial && written > 0 {
			resumeFrom = written
			flags = os.O_WRONLY
		}

		reqHeaders := cloneHeaders(headers)
		if resumeFrom > 0 {
			reqHeaders["Range"] = fmt.Sprintf("bytes=%d-", resumeFrom)
		}

		n, status, retryAfter, sha, err := e.streamToFile(ctx, req.URL, reqHeaders, outputPath, flags, resumeFrom, bw, func(done int64) {
			if onProgress != nil {
				onProgress(offset+resumeFrom+done, 0)
			}
		})

		if err == nil && (status == http.StatusOK || status == http.StatusPartialContent) {
			return resumeFrom + n, sha, nil
		}

		if resumeFrom > 0 && status != 0 && status != http.StatusPartialContent {
			// Server rejected the resumed range; fall back to a full restart
			// on the next attempt by forgetting what we'd written.
			written = 0
		} else {
			written = resumeFrom + n
		}

		if err != nil {
			lastErr = err
			decision := e.retry.ClassifyException(err, attempt)
			if decision.Verdict == model.RetryFatal || !e.retry.ShouldRetry(decision, attempt) {
				break
			}
			e.metrics.Retries.WithLabelValues(decision.Verdict.String()).Inc()
			time.Sleep(decision.Delay)
			continue
		}

		lastErr = fluxerr.Newf(fluxerr.Network, "unexpected status %d", status).WithStatus(status)
		decision := e.retry.ClassifyStatus(status, attempt)
		if decision.Verdict == model.RetryFatal || !e.retry.ShouldRetry(decision, attempt) {
			break
		}
		e.metrics.Retries.WithLabelValues(decision.Verdict.String()).Inc()
		delay := decision.Delay
		if retryAfter > 0 {
			delay = retryAfter
		}
		time.Sleep(delay)
	}

	if lastErr != nil {
		return 0, "", lastErr
	}
	return 0, "", fluxerr.New(fluxerr.Network, "single-stream download exhausted retries")
}

// streamToFile performs one GET attempt, writing the body in
// singleStreamWriteSize chunks, reporting bandwidth/progress per write. When
// writeOffset is 0 the body is hashed incrementally as it streams in, so the
// caller can skip a second whole-file read to verify it; a resumed write
// (writeOffset > 0) can't hash the already-written prefix cheaply, so it
// returns an empty digest and leaves verification to a later ComputeSHA256.
func (e *Engine) streamToFile(
	ctx context.Context,
	rawURL string,
	headers map[string]string,
	outputPath string,
	flags int,
	writeOffset int64,
	bw *bandwidth.Estimator,
	onProgress func(done int64),
) (int64, int, time.Duration, string, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return 0, 0, 0, "", err
	}

	resp, err := e.clients.HTTP.Do(req)
	if err != nil {
		return 0, 0, 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		drainAndClose(resp)
		return 0, resp.StatusCode, retryAfter, "", nil
	}

	f, err := os.OpenFile(outputPath, flags, 0o644)
	if err != nil {
		return 0, resp.StatusCode, 0, "", fluxerr.Newf(fluxerr.Network, "cannot open %s for writing", outputPath).WithCause(err)
	}
	defer f.Close()
	if writeOffset > 0 {
		if _, err := f.Seek(writeOffset, io.SeekStart); err != nil {
			return 0, resp.StatusCode, 0, "", fluxerr.New(fluxerr.Network, "cannot seek to resume offset").WithCause(err)
		}
	}

	var hasher *integrity.IncrementalHasher
	if writeOffset == 0 {
		hasher = integrity.NewIncrementalHasher()
	}

	var written int64
	buf := make([]byte, singleStreamWriteSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			started := time.Now()
			if _, werr := f.Write(buf[:n]); werr != nil {
				return written, resp.StatusCode, 0, "", fluxerr.New(fluxerr.Network, "write to output file failed").WithCause(werr)
			}
			if hasher != nil {
				hasher.Write(buf[:n])
			}
			elapsed := time.Since(started)
			if elapsed > 0 {
				bw.Record(int64(n), elapsed)
				e.metrics.SpeedBps.Set(bw.CurrentSpeed())
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(written)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, resp.StatusCode, 0, "", readErr
		}
	}
	sha := ""
	if hasher != nil {
		sha = hasher.HexDigest()
	}
	return written, resp.StatusCode, 0, sha, nil
}

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
