// Package model holds the shared data types passed between Fluxion's
// chunker, optimizer, bandwidth, retry, scheduler, stealth, and engine
// components.
package model

import "time"

// ChunkPlan is a closed byte interval [Start, End] of a remote resource,
// tagged with a dense, zero-based Index.
type ChunkPlan struct {
	Index int
	Start int64
	End   int64 // inclusive
}

// Size returns End - Start + 1.
func (p ChunkPlan) Size() int64 {
	return p.End - p.Start + 1
}

// ChunkStatus is the terminal outcome of a single chunk download attempt.
type ChunkStatus int

const (
	ChunkOK ChunkStatus = iota
	ChunkFailed
)

// ChunkResult is the terminal outcome of one planned chunk. Data is nil
// when Status is ChunkFailed.
type ChunkResult struct {
	Index   int
	Start   int64
	End     int64
	Data    []byte
	Elapsed time.Duration
	Status  ChunkStatus
	Err     string
}

// SpeedSample is one bandwidth observation.
type SpeedSample struct {
	Bytes     int64
	Elapsed   time.Duration
	Timestamp time.Time
}

// TransferPhase is the transfer state machine. Resolving through Complete
// are the ordered non-terminal/terminal success states; Error absorbs from
// any of them.
type TransferPhase int

const (
	PhaseResolving TransferPhase = iota
	PhaseConnecting
	PhaseTLS
	PhaseProtocolLock
	PhaseStream
	PhaseVerify
	PhaseComplete
	PhaseError
)

func (p TransferPhase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseConnecting:
		return "connecting"
	case PhaseTLS:
		return "tls"
	case PhaseProtocolLock:
		return "protocol_lock"
	case PhaseStream:
		return "stream"
	case PhaseVerify:
		return "verify"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// FluxMode is the engine's selected download strategy for one fetch.
type FluxMode int

const (
	ModeSmart FluxMode = iota
	ModeParallel
	ModeSingle
	ModeStream
	ModeMirror
)

func (m FluxMode) String() string {
	switch m {
	case ModeSmart:
		return "smart"
	case ModeParallel:
		return "parallel"
	case ModeSingle:
		return "single"
	case ModeStream:
		return "stream"
	case ModeMirror:
		return "mirror"
	default:
		return "unknown"
	}
}

// ParseFluxMode parses a CLI --mode value, accepting "" as ModeSmart.
func ParseFluxMode(s string) (FluxMode, bool) {
	switch s {
	case "", "smart":
		return ModeSmart, true
	case "parallel":
		return ModeParallel, true
	case "single":
		return ModeSingle, true
	case "stream":
		return ModeStream, true
	case "mirror":
		return ModeMirror, true
	default:
		return ModeSmart, false
	}
}

// TransferStats is the live, Engine-owned view of an in-flight transfer.
// BytesDone is monotonically non-decreasing.
type TransferStats struct {
	FetchID        string // correlates log lines and mirror candidates to one fetch
	BytesDone      int64
	BytesTotal     int64 // 0 means unknown
	SpeedBps       float64
	ETASeconds     float64 // 0 when undefined
	ActiveStreams  int
	Phase          TransferPhase
	Mode           FluxMode
}

// Header is a single name/value pair, used where ordering of assembly
// matters (stealth header precedence, custom -H flags).
type Header struct {
	Name  string
	Value string
}

// FetchRequest is the (mostly) immutable input to Engine.Fetch. Resume may
// be downgraded by the engine when the server does not support ranges.
type FetchRequest struct {
	URL               string
	OutputPath        string
	Headers           []Header
	Cookies           []Header
	Referer           string
	BrowserProfile    string
	MaxConnections    int
	ChunkSize         int64
	Resume            bool
	VerifyTLS         bool
	Timeout           time.Duration
	MaxRetries        int
	Proxy             string
	ExpectedSHA256    string
	Mode              FluxMode
	RetryPreservesPartial bool
}

// DefaultFetchRequest seeds a FetchRequest with Fluxion's documented defaults.
func DefaultFetchRequest(url string) FetchRequest {
	return FetchRequest{
		URL:            url,
		MaxConnections: 8,
		ChunkSize:      1 << 20, // 1 MiB
		Resume:         true,
		VerifyTLS:      true,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		Mode:           ModeSmart,
	}
}

// ProbeResult is what the engine discovers about a remote resource before
// committing to a download strategy.
type ProbeResult struct {
	HTTPVersion    string
	Server         string
	SupportsRange  bool
	ContentLength  int64 // -1 when unknown
	ContentType    string
	LatencyMs      float64
	TLSVersion     string
	Cipher         string
	CertIssuer     string
	CertExpiry     time.Time
	ResolvedIP     string
	Headers        map[string]string
}

// FetchResult is the terminal outcome of Engine.Fetch.
type FetchResult struct {
	FetchID         string
	URL             string
	OutputPath      string
	BytesDownloaded int64
	Elapsed         time.Duration
	SpeedBps        float64
	Protocol        string
	SHA256          string
	Resumed         bool
}

// RetryVerdict classifies how (or whether) a failed attempt should be retried.
type RetryVerdict int

const (
	RetryImmediate RetryVerdict = iota
	RetryBackoff
	RetryAlternate
	RetryFatal
)

func (v RetryVerdict) String() string {
	switch v {
	case RetryImmediate:
		return "retry_immediate"
	case RetryBackoff:
		return "retry_backoff"
	case RetryAlternate:
		return "retry_alternate"
	case RetryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// RetryDecision is the outcome of classifying one failed attempt.
type RetryDecision struct {
	Verdict RetryVerdict
	Delay   time.Duration
	Reason  string
}

// BrowserProfile is a frozen header/user-agent fingerprint used to
// impersonate a real browser session.
type BrowserProfile struct {
	Name        string
	UserAgent   string
	Headers     []Header
	SecHeaders  []Header
}

// BenchResult is the outcome of Engine.Bench: n serial HEAD probes plus one
// ranged throughput sample.
type BenchResult struct {
	URL            string
	Samples        int
	Failures       int
	MinMs          float64
	MaxMs          float64
	AvgMs          float64
	P50Ms          float64
	P95Ms          float64
	P99Ms          float64
	JitterMs       float64
	Stability      float64
	ThroughputMbps float64
}

// PluginMeta identifies an external (non-HTTP) downloader implementation.
type PluginMeta struct {
	Name             string
	Version          string
	SupportedSchemes []string
}

// CertificateInfo is the supplemental, probe-populating TLS inspection
// record surfaced by `fluxion secure`.
type CertificateInfo struct {
	Subject         string
	Issuer          string
	Version         int
	SerialNumber    string
	NotBefore       time.Time
	NotAfter        time.Time
	SAN             []string
	FingerprintSHA256 string
	TLSVersion      string
	Cipher          string
}
