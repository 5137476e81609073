package engine

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/integrity"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

// Bench issues n serial HEADs measuring latency percentiles, jitter, and
// stability, plus one ranged GET of the first 1 MiB measuring throughput.
func (e *Engine) Bench(ctx context.Context, rawURL string, n int) (model.BenchResult, error) {
	if n <= 0 {
		n = 1
	}

	result := model.BenchResult{URL: rawURL, Samples: n}
	samples := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		req, err := newRequest(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return model.BenchResult{}, err
		}
		start := time.Now()
		resp, err := e.clients.HTTP.Do(req)
		latency := time.Since(start)
		if err != nil {
			result.Failures++
			continue
		}
		drainAndClose(resp)
		samples = append(samples, float64(latency.Microseconds())/1000.0)
	}

	if len(samples) == 0 {
		return model.BenchResult{}, fluxerr.New(fluxerr.Network, "all benchmark probes failed")
	}

	sort.Float64s(samples)
	result.MinMs = samples[0]
	result.MaxMs = samples[len(samples)-1]
	result.AvgMs = mean(samples)
	result.P50Ms = percentile(samples, 0.50)
	result.P95Ms = percentile(samples, 0.95)
	result.P99Ms = percentile(samples, 0.99)
	result.JitterMs = result.MaxMs - result.MinMs

	sigma := stddev(samples, result.AvgMs)
	stability := 1 - sigma/result.AvgMs
	result.Stability = math.Max(0, math.Min(1, stability))

	if throughput, err := e.measureThroughput(ctx, rawURL); err == nil {
		result.ThroughputMbps = throughput
	}

	return result, nil
}

// measureThroughput downloads a 1 MiB ranged sample into a secure temp file
// (rather than holding it in memory) and times the write, since the point
// is to measure disk-backed throughput the same way a real fetch would see
// it.
func (e *Engine) measureThroughput(ctx context.Context, rawURL string) (float64, error) {
	const sampleSize = 1 << 20 // 1 MiB

	req, err := newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes=0-1048575")

	tmp, err := integrity.NewSecureTempFile("", "fluxion-bench-*")
	if err != nil {
		return 0, err
	}
	defer tmp.Close()

	start := time.Now()
	resp, err := e.clients.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	buf := make([]byte, 64*1024)
	var total int64
	for total < sampleSize {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := tmp.File.Write(buf[:n]); werr != nil {
				return 0, fluxerr.New(fluxerr.Network, "cannot write throughput sample").WithCause(werr)
			}
			total += int64(n)
		}
		if readErr != nil {
			break
		}
	}
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0, fluxerr.New(fluxerr.Network, "throughput sample took no measurable time")
	}
	bitsPerSecond := float64(total) * 8 / elapsed
	return bitsPerSecond / 1_000_000, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, avg float64) float64 {
	var sumSq float64
	for _, x := range xs {
		d := x - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// percentile computes p by linear interpolation on a sorted sample.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
