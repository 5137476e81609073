// Package metrics wires Fluxion's transfer counters and histograms into
// an injectable Prometheus registry. Fluxion itself never starts an HTTP
// /metrics server; callers that want to expose the registry wire
// promhttp.Handler themselves.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder groups the metrics one Engine instance reports.
type Recorder struct {
	BytesDownloaded  prometheus.Counter
	ChunkFailures    prometheus.Counter
	Retries          *prometheus.CounterVec
	ActiveStreams    prometheus.Gauge
	TransferDuration prometheus.Histogram
	SpeedBps         prometheus.Gauge
}

// New registers and returns a Recorder bound to reg. Pass
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer's registry to join the process default.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxion",
			Name:      "bytes_downloaded_total",
			Help:      "Total bytes written to disk across all fetches.",
		}),
		ChunkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluxion",
			Name:      "chunk_failures_total",
			Help:      "Chunks that exhausted retries or hit a fatal status.",
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxion",
			Name:      "retries_total",
			Help:      "Retry attempts, labeled by verdict.",
		}, []string{"verdict"}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluxion",
			Name:      "active_streams",
			Help:      "Number of chunk workers currently in flight.",
		}),
		TransferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fluxion",
			Name:      "transfer_duration_seconds",
			Help:      "Wall-clock duration of completed fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		SpeedBps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluxion",
			Name:      "speed_bytes_per_second",
			Help:      "Most recent smoothed transfer speed.",
		}),
	}

	reg.MustRegister(
		r.BytesDownloaded,
		r.ChunkFailures,
		r.Retries,
		r.ActiveStreams,
		r.TransferDuration,
		r.SpeedBps,
	)
	return r
}

// Noop returns a Recorder registered against a private, discarded
// registry, for callers (tests, `flux stream`) that don't want metrics
// wired anywhere observable.
func Noop() *Recorder {
	return New(prometheus.NewRegistry())
}
