package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestBenchSyntheticLatencies covers scenario 6: 10 HEAD probes with
// synthetic per-request latencies [10,12,11,13,14,10,12,15,9,11] ms.
func TestBenchSyntheticLatencies(t *testing.T) {
	latenciesMs := []int{10, 12, 11, 13, 14, 10, 12, 15, 9, 11}
	var call int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := call
		call++
		if idx < len(latenciesMs) {
			time.Sleep(time.Duration(latenciesMs[idx]) * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := newTestEngine(t)
	result, err := e.Bench(t.Context(), srv.URL, len(latenciesMs))
	if err != nil {
		t.Fatal(err)
	}

	if result.Failures != 0 {
		t.Errorf("Failures = %d, want 0", result.Failures)
	}
	if result.MinMs < 5 {
		t.Errorf("MinMs = %.2f, suspiciously low", result.MinMs)
	}
	if result.JitterMs <= 0 {
		t.Errorf("JitterMs = %.2f, want > 0", result.JitterMs)
	}
	if result.Stability <= 0 || result.Stability > 1 {
		t.Errorf("Stability = %.3f, want in (0, 1]", result.Stability)
	}
	if result.P50Ms < result.MinMs || result.P50Ms > result.MaxMs {
		t.Errorf("P50Ms = %.2f out of [min,max] = [%.2f,%.2f]", result.P50Ms, result.MinMs, result.MaxMs)
	}
}

func TestBenchAllFail(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Bench(t.Context(), "http://127.0.0.1:1", 3); err == nil {
		t.Fatal("expected an error when every probe fails")
	}
}
