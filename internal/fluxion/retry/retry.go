// Package retry classifies HTTP statuses and transport errors into retry
// verdicts with backoff delays. Deliberately not built on a generic
// retrying HTTP client: those retry at the transport round-trip level and
// can't expose the per-status, per-exception-kind verdict granularity
// callers need to decide whether a partial write should be kept or
// discarded (see DESIGN.md).
package retry

import (
	"errors"
	"math"
	"net"
	"strings"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

var fatalStatuses = map[int]bool{
	400: true, 401: true, 403: true, 404: true, 405: true, 410: true, 451: true,
}

var retryableStatuses = map[int]bool{
	408: true, 500: true, 502: true, 503: true, 504: true,
}

// Classifier classifies failed attempts into retry decisions.
type Classifier struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// New returns a Classifier with Fluxion's default thresholds.
func New() *Classifier {
	return &Classifier{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// ClassifyStatus classifies an HTTP response status at the given attempt
// number (1-based: this is the attempt that just failed).
func (c *Classifier) ClassifyStatus(code, attempt int) model.RetryDecision {
	if code >= 200 && code < 300 {
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "success"}
	}
	if fatalStatuses[code] {
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "non-retryable status"}
	}
	if code == 429 {
		delay := time.Duration(math.Min(
			float64(c.BaseDelay)*math.Pow(2, float64(attempt)),
			float64(c.MaxDelay),
		))
		return model.RetryDecision{Verdict: model.RetryBackoff, Delay: delay, Reason: "rate limited"}
	}
	if retryableStatuses[code] {
		delay := time.Duration(math.Min(
			float64(c.BaseDelay)*math.Pow(2, float64(attempt-1)),
			float64(c.MaxDelay),
		))
		return model.RetryDecision{Verdict: model.RetryBackoff, Delay: delay, Reason: "transient server error"}
	}
	return model.RetryDecision{Verdict: model.RetryBackoff, Delay: c.BaseDelay, Reason: "unclassified status"}
}

// ClassifyException pattern-matches a transport error's message/kind.
func (c *Classifier) ClassifyException(err error, attempt int) model.RetryDecision {
	if err == nil {
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "no error"}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "dns resolution failed"}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		delay := time.Duration(math.Min(
			float64(c.BaseDelay)*math.Pow(2, float64(attempt-1)),
			float64(c.MaxDelay),
		))
		return model.RetryDecision{Verdict: model.RetryBackoff, Delay: delay, Reason: "timeout"}
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "aborted"):
		return model.RetryDecision{Verdict: model.RetryImmediate, Delay: 500 * time.Millisecond, Reason: "connection error"}
	case strings.Contains(msg, "resolve") || strings.Contains(msg, "name lookup") || strings.Contains(msg, "no such host"):
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "dns resolution failed"}
	case strings.Contains(msg, "tls") || strings.Contains(msg, "certificate") || strings.Contains(msg, "x509"):
		return model.RetryDecision{Verdict: model.RetryFatal, Reason: "tls failure"}
	default:
		delay := time.Duration(math.Min(
			float64(c.BaseDelay)*math.Pow(2, float64(attempt-1)),
			float64(c.MaxDelay),
		))
		return model.RetryDecision{Verdict: model.RetryBackoff, Delay: delay, Reason: "transport error"}
	}
}

// ShouldRetry applies the attempt budget on top of a classification.
func (c *Classifier) ShouldRetry(decision model.RetryDecision, attempt int) bool {
	if decision.Verdict == model.RetryFatal {
		return false
	}
	return attempt < c.MaxRetries
}
