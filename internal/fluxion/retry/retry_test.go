package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

func TestClassifyStatusFatal(t *testing.T) {
	c := New()
	for _, code := range []int{400, 401, 403, 404, 405, 410, 451} {
		d := c.ClassifyStatus(code, 1)
		if d.Verdict != model.RetryFatal {
			t.Errorf("status %d: verdict = %v, want fatal", code, d.Verdict)
		}
	}
}

func TestClassifyStatusSuccess(t *testing.T) {
	c := New()
	d := c.ClassifyStatus(200, 1)
	if d.Verdict != model.RetryFatal {
		t.Fatalf("2xx should not retry, got verdict %v", d.Verdict)
	}
}

func TestClassifyStatus429HonorsExponent(t *testing.T) {
	c := New()
	d0 := c.ClassifyStatus(429, 0)
	d1 := c.ClassifyStatus(429, 1)
	if d0.Verdict != model.RetryBackoff || d1.Verdict != model.RetryBackoff {
		t.Fatalf("429 should be retry_backoff")
	}
	if d1.Delay <= d0.Delay {
		t.Fatalf("429 delay should grow with attempt: attempt0=%v attempt1=%v", d0.Delay, d1.Delay)
	}
}

func TestClassifyStatusRetryableCapsAtMax(t *testing.T) {
	c := New()
	d := c.ClassifyStatus(503, 100)
	if d.Delay != c.MaxDelay {
		t.Fatalf("delay = %v, want capped at %v", d.Delay, c.MaxDelay)
	}
}

func TestClassifyExceptionConnectionIsImmediate(t *testing.T) {
	c := New()
	d := c.ClassifyException(errors.New("dial tcp: connection refused"), 1)
	if d.Verdict != model.RetryImmediate {
		t.Fatalf("verdict = %v, want retry_immediate", d.Verdict)
	}
	if d.Delay != 500*time.Millisecond {
		t.Fatalf("delay = %v, want 500ms", d.Delay)
	}
}

func TestClassifyExceptionTLSIsFatal(t *testing.T) {
	c := New()
	d := c.ClassifyException(errors.New("x509: certificate signed by unknown authority"), 1)
	if d.Verdict != model.RetryFatal {
		t.Fatalf("verdict = %v, want fatal", d.Verdict)
	}
}

func TestClassifyExceptionDNSIsFatal(t *testing.T) {
	c := New()
	d := c.ClassifyException(errors.New("no such host"), 1)
	if d.Verdict != model.RetryFatal {
		t.Fatalf("verdict = %v, want fatal", d.Verdict)
	}
}

func TestShouldRetryRespectsMaxRetries(t *testing.T) {
	c := New()
	decision := model.RetryDecision{Verdict: model.RetryBackoff}
	if !c.ShouldRetry(decision, 2) {
		t.Fatalf("attempt 2 < max_retries 3 should retry")
	}
	if c.ShouldRetry(decision, 3) {
		t.Fatalf("attempt 3 >= max_retries 3 should not retry")
	}
}

func TestShouldRetryNeverForFatal(t *testing.T) {
	c := New()
	decision := model.RetryDecision{Verdict: model.RetryFatal}
	if c.ShouldRetry(decision, 0) {
		t.Fatalf("fatal verdict should never retry")
	}
}
