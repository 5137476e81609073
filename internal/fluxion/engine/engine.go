// Package engine coordinates Fluxion's full transfer state machine:
// probing, mode selection, parallel/single downloading, verification, and
// the external-protocol and mirror/stream variants.
//
// Unlike a fixed-worker-count single-protocol HTTP download, Engine drives
// the adaptive chunker/optimizer/bandwidth/retry/scheduler/stealth
// components built underneath it and generalizes to scp/sftp/ftp via
// internal/fluxion/protocol.
package engine

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/chunker"
	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/integrity"
	"github.com/fluxion-dl/fluxion/internal/fluxion/metrics"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/protocol"
	"github.com/fluxion-dl/fluxion/internal/fluxion/retry"
	"github.com/fluxion-dl/fluxion/internal/fluxion/stealth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/transport"
	"github.com/fluxion-dl/fluxion/internal/fluxion/version"
)

// ProgressSink receives live TransferStats updates during fetch/stream/mirror.
type ProgressSink func(model.TransferStats)

// Engine owns the HTTP client set, the retry classifier, and the metrics
// recorder; a fresh Chunker/Optimizer/Bandwidth/Scheduler is constructed per
// fetch since those three carry per-transfer adaptive state.
type Engine struct {
	clients *transport.ClientSet
	retry   *retry.Classifier
	metrics *metrics.Recorder
	log     *zap.Logger
}

// Options configures a new Engine.
type Options struct {
	VerifyTLS      bool
	Timeout        time.Duration
	Proxy          string
	EnableHTTP3    bool
	MaxConnections int
	Metrics        *metrics.Recorder
	Logger         *zap.Logger
}

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	clients, err := transport.New(transport.Options{
		VerifyTLS:      opts.VerifyTLS,
		Timeout:        opts.Timeout,
		Proxy:          opts.Proxy,
		EnableHTTP3:    opts.EnableHTTP3,
		MaxConnections: opts.MaxConnections,
	})
	if err != nil {
		return nil, err
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Noop()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		clients: clients,
		retry:   retry.New(),
		metrics: m,
		log:     log,
	}, nil
}

// Fetch resolves headers, probes the URL, decides whether to resume,
// chooses single-stream vs. parallel-chunk mode, downloads, and verifies
// the result's checksum.
func (e *Engine) Fetch(ctx context.Context, req model.FetchRequest, progress ProgressSink) (model.FetchResult, error) {
	started := time.Now()
	fetchID := uuid.NewString()
	log := e.log.With(zap.String("fetch_id", fetchID))
	log.Debug("fetch starting", zap.String("url", req.URL), zap.String("mode", req.Mode.String()))
	emit := func(phase model.TransferPhase, mode model.FluxMode, done, total int64, speed float64) {
		if progress == nil {
			return
		}
		progress(model.TransferStats{
			FetchID:   fetchID,
			BytesDone: done, BytesTotal: total, SpeedBps: speed,
			Phase: phase, Mode: mode,
		})
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return model.FetchResult{}, fluxerr.Newf(fluxerr.Protocol, "cannot parse URL %q", req.URL).WithCause(err)
	}

	// Step 1: scheme dispatch to an external downloader.
	if isExternalScheme(parsed.Scheme) {
		return e.fetchExternal(ctx, req, fetchID, parsed, emit)
	}

	// Step 2: resolve stealth headers.
	stealthCtx, err := stealth.BuildFromRequest(req)
	if err != nil {
		return model.FetchResult{}, err
	}
	headers := stealthCtx.BuildHeaders()
	if headers["User-Agent"] == "" {
		headers["User-Agent"] = version.String()
	}

	// Step 3: probe.
	emit(model.PhaseResolving, req.Mode, 0, 0, 0)
	probeResult, err := e.Probe(ctx, req.URL, headers)
	if err != nil {
		emit(model.PhaseError, req.Mode, 0, 0, 0)
		return model.FetchResult{}, err
	}
	emit(model.PhaseProtocolLock, req.Mode, 0, probeResult.ContentLength, 0)

	// Step 4: resume decision.
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputName(parsed)
	}
	var offset int64
	resume := req.Resume
	if resume {
		if info, statErr := os.Stat(outputPath); statErr == nil {
			if probeResult.SupportsRange {
				offset = info.Size()
			} else {
				resume = false
			}
		}
	}
	if resume && probeResult.ContentLength > 0 && offset >= probeResult.ContentLength {
		emit(model.PhaseComplete, req.Mode, offset, probeResult.ContentLength, 0)
		return model.FetchResult{
			FetchID: fetchID, URL: req.URL, OutputPath: outputPath, BytesDownloaded: 0,
			Protocol: probeResult.HTTPVersion, Resumed: true,
		}, nil
	}

	// Step 5: mode selection.
	mode := req.Mode
	useParallel := probeResult.SupportsRange && probeResult.ContentLength > 0 &&
		probeResult.ContentLength > 2*chunker.InitialChunkSize
	switch mode {
	case model.ModeSingle:
		useParallel = false
	case model.ModeParallel:
		if !probeResult.SupportsRange || probeResult.ContentLength <= 0 {
			return model.FetchResult{}, fluxerr.New(fluxerr.Network, "server does not support ranges; cannot force parallel mode")
		}
		useParallel = true
	case model.ModeSmart:
		// fall through with the computed default
	}

	bw := bandwidth.New()
	emit(model.PhaseStream, mode, offset, probeResult.ContentLength, 0)

	var bytesDownloaded int64
	var sha string
	if useParallel {
		bytesDownloaded, err = e.fetchParallel(ctx, req, headers, probeResult, offset, outputPath, bw, func(done, total int64) {
			emit(model.PhaseStream, mode, done, total, bw.CurrentSpeed())
		})
	} else {
		bytesDownloaded, sha, err = e.fetchSingle(ctx, req, headers, outputPath, offset, bw, func(done, total int64) {
			emit(model.PhaseStream, mode, done, total, bw.CurrentSpeed())
		})
	}
	if err != nil {
		emit(model.PhaseError, mode, offset, probeResult.ContentLength, 0)
		return model.FetchResult{}, err
	}

	// Step 8: verify. The single-stream path already hashed the body as it
	// streamed in when it wrote from byte zero; everything else (parallel
	// chunks, a resumed single-stream write) re-reads the file once here.
	emit(model.PhaseVerify, mode, offset+bytesDownloaded, probeResult.ContentLength, 0)
	if sha == "" {
		sha, err = integrity.ComputeSHA256(outputPath)
		if err != nil {
			return model.FetchResult{}, err
		}
	}
	if req.ExpectedSHA256 != "" {
		if err := integrity.Verify(outputPath, req.ExpectedSHA256); err != nil {
			return model.FetchResult{}, err
		}
	}

	elapsed := time.Since(started)
	e.metrics.BytesDownloaded.Add(float64(bytesDownloaded))
	e.metrics.TransferDuration.Observe(elapsed.Seconds())
	log.Info("fetch complete",
		zap.String("url", req.URL),
		zap.Int64("bytes", bytesDownloaded),
		zap.Duration("elapsed", elapsed),
	)

	emit(model.PhaseComplete, mode, offset+bytesDownloaded, probeResult.ContentLength, bw.AverageSpeed())
	return model.FetchResult{
		FetchID:         fetchID,
		URL:             req.URL,
		OutputPath:      outputPath,
		BytesDownloaded: bytesDownloaded,
		Elapsed:         elapsed,
		SpeedBps:        bw.AverageSpeed(),
		Protocol:        probeResult.HTTPVersion,
		SHA256:          sha,
		Resumed:         offset > 0,
	}, nil
}

func isExternalScheme(scheme string) bool {
	switch scheme {
	case "scp", "sftp", "ftp":
		return true
	default:
		return false
	}
}

func (e *Engine) fetchExternal(ctx context.Context, req model.FetchRequest, fetchID string, parsed *url.URL, emit func(model.TransferPhase, model.FluxMode, int64, int64, float64)) (model.FetchResult, error) {
	downloader, err := protocol.ForScheme(parsed.Scheme)
	if err != nil {
		return model.FetchResult{}, err
	}
	opts, err := protocol.ParseOptions(req.URL)
	if err != nil {
		return model.FetchResult{}, err
	}
	opts.Port = protocol.DefaultPort(parsed.Scheme, opts.Port)

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputName(parsed)
	}

	emit(model.PhaseConnecting, req.Mode, 0, 0, 0)
	started := time.Now()
	n, err := downloader.Download(ctx, opts, outputPath)
	if err != nil {
		emit(model.PhaseError, req.Mode, 0, 0, 0)
		return model.FetchResult{}, err
	}
	elapsed := time.Since(started)

	emit(model.PhaseVerify, req.Mode, n, n, 0)
	sha, err := integrity.ComputeSHA256(outputPath)
	if err != nil {
		return model.FetchResult{}, err
	}
	if req.ExpectedSHA256 != "" {
		if err := integrity.Verify(outputPath, req.ExpectedSHA256); err != nil {
			return model.FetchResult{}, err
		}
	}

	speed := 0.0
	if elapsed > 0 {
		speed = float64(n) / elapsed.Seconds()
	}
	emit(model.PhaseComplete, req.Mode, n, n, speed)
	return model.FetchResult{
		FetchID: fetchID, URL: req.URL, OutputPath: outputPath, BytesDownloaded: n,
		Elapsed: elapsed, SpeedBps: speed, Protocol: parsed.Scheme, SHA256: sha,
	}, nil
}

func defaultOutputName(u *url.URL) string {
	base := u.Path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if base == "" {
		base = "download"
	}
	return base
}

func newRequest(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fluxerr.Newf(fluxerr.Network, "cannot build %s request", method).WithCause(err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return req, nil
}

func drainAndClose(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}
