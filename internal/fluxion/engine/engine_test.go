package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{VerifyTLS: true, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func fixedPayload(size int) []byte {
	src := rand.New(rand.NewSource(42))
	buf := make([]byte, size)
	src.Read(buf)
	return buf
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TestFetchKnownSizeRangedParallel covers scenario 1.
func TestFetchKnownSizeRangedParallel(t *testing.T) {
	const size = 5 * 1024 * 1024
	payload := fixedPayload(size)

	srv := httptest.NewServer(rangedServerHandler(payload))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bin")

	e := newTestEngine(t)
	req := model.DefaultFetchRequest(srv.URL)
	req.OutputPath = outPath
	req.ChunkSize = 1 << 20
	req.MaxConnections = 4
	req.MaxRetries = 3

	result, err := e.Fetch(t.Context(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.BytesDownloaded != size {
		t.Errorf("BytesDownloaded = %d, want %d", result.BytesDownloaded, size)
	}
	if result.SHA256 != sha256Hex(payload) {
		t.Errorf("SHA256 mismatch")
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Error("output file content does not match server content byte-for-byte")
	}
}

// TestFetchResume covers scenario 2.
func TestFetchResume(t *testing.T) {
	const size = 5 * 1024 * 1024
	const prefix = 2 * 1024 * 1024
	payload := fixedPayload(size)

	var chunkRequests int
	srv := httptest.NewServer(countingMiddleware(&chunkRequests, rangedServerHandler(payload)))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(outPath, payload[:prefix], 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	req := model.DefaultFetchRequest(srv.URL)
	req.OutputPath = outPath
	req.Resume = true

	result, err := e.Fetch(t.Context(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Resumed {
		t.Error("expected Resumed=true")
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != size {
		t.Errorf("final size = %d, want %d", len(got), size)
	}
	if string(got) != string(payload) {
		t.Error("resumed output does not match full payload")
	}
}

// TestFetchNoRangeSupportFallback covers scenario 3.
func TestFetchNoRangeSupportFallback(t *testing.T) {
	payload := fixedPayload(512 * 1024)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bin")

	e := newTestEngine(t)
	req := model.DefaultFetchRequest(srv.URL)
	req.OutputPath = outPath
	req.Resume = true

	result, err := e.Fetch(t.Context(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.SHA256 != sha256Hex(payload) {
		t.Error("SHA256 mismatch on no-range-support fallback")
	}
}

// TestFetchTransient503WithRetryAfter covers scenario 4: the GET phase
// fails once with a 503/Retry-After before succeeding. The HEAD probe
// always succeeds so only the fetch retry is under test.
func TestFetchTransient503WithRetryAfter(t *testing.T) {
	payload := fixedPayload(256 * 1024)
	var getAttempts int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			w.WriteHeader(http.StatusOK)
			return
		}
		getAttempts++
		if getAttempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bin")

	e := newTestEngine(t)
	req := model.DefaultFetchRequest(srv.URL)
	req.OutputPath = outPath

	start := time.Now()
	_, err := e.Fetch(t.Context(), req, nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if getAttempts != 2 {
		t.Errorf("GET attempts = %d, want 2 (exactly one retry)", getAttempts)
	}
	if elapsed < 1*time.Second {
		t.Errorf("elapsed = %v, want >= 1s honoring Retry-After", elapsed)
	}
}

// TestFetchFatal404 covers scenario 5.
func TestFetchFatal404(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bin")

	e := newTestEngine(t)
	req := model.DefaultFetchRequest(srv.URL)
	req.OutputPath = outPath

	_, err := e.Fetch(t.Context(), req, nil)
	if err == nil {
		t.Fatal("expected a fatal error for 404")
	}
	// Probe issues a single HEAD; 404 is not in the HEAD-fallback or
	// transient sets, so it must not retry.
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retries on fatal status)", attempts)
	}
}

func rangedServerHandler(payload []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")

		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}

		start, end, ok := parseRangeHeaderForTest(rangeHeader, len(payload))
		if !ok {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(payload)))
		w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[start : end+1])
	}
}

func countingMiddleware(counter *int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*counter++
		next(w, r)
	}
}

func parseRangeHeaderForTest(header string, total int) (start, end int, ok bool) {
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(parts[0])
	if err1 != nil {
		return 0, 0, false
	}
	if parts[1] == "" {
		end = total - 1
	} else {
		var err2 error
		end, err2 = strconv.Atoi(parts[1])
		if err2 != nil {
			return 0, 0, false
		}
	}
	if end >= total {
		end = total - 1
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}
