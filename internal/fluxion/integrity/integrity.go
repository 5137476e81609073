// Package integrity computes and verifies streaming SHA-256 digests of
// downloaded files, and provides an owner-only-permission temp file for
// callers that need to stage bytes securely before committing them.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
)

// BlockSize is the streaming read size for whole-file hashing.
const BlockSize = 256 * 1024

// ComputeSHA256 streams path through SHA-256 in BlockSize reads and
// returns the lowercase hex digest.
func ComputeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fluxerr.Newf(fluxerr.Security, "cannot open %s for verification", path).WithCause(err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fluxerr.Newf(fluxerr.Security, "failed reading %s for verification", path).WithCause(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify computes path's SHA-256 and compares it case-insensitively against
// expected, returning a fluxerr.Security error carrying both hashes on
// mismatch.
func Verify(path, expected string) error {
	actual, err := ComputeSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return fluxerr.Newf(fluxerr.Security, "integrity mismatch for %s: expected %s, got %s", path, expected, actual)
	}
	return nil
}

// IncrementalHasher lets a caller feed bytes as they stream in (e.g. the
// single-stream download path) rather than re-reading the file afterward.
type IncrementalHasher struct {
	h     interface {
		io.Writer
		Sum(b []byte) []byte
	}
	bytes int64
}

// NewIncrementalHasher returns a ready-to-write hasher.
func NewIncrementalHasher() *IncrementalHasher {
	return &IncrementalHasher{h: sha256.New()}
}

func (ih *IncrementalHasher) Write(p []byte) (int, error) {
	n, err := ih.h.Write(p)
	ih.bytes += int64(n)
	return n, err
}

// HexDigest returns the current lowercase hex digest.
func (ih *IncrementalHasher) HexDigest() string {
	return hex.EncodeToString(ih.h.Sum(nil))
}

// BytesHashed returns how many bytes have been written so far.
func (ih *IncrementalHasher) BytesHashed() int64 {
	return ih.bytes
}

// SecureTempFile creates an owner-only-permission temp file under dir
// (pattern is an os.CreateTemp glob pattern) and removes it when Close is
// called, unless Keep has been set.
type SecureTempFile struct {
	File *os.File
	keep bool
}

// NewSecureTempFile creates a new owner-only-permission temp file.
func NewSecureTempFile(dir, pattern string) (*SecureTempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fluxerr.New(fluxerr.Security, "cannot create secure temp file").WithCause(err)
	}
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fluxerr.New(fluxerr.Security, "cannot set owner-only permissions on temp file").WithCause(err)
	}
	return &SecureTempFile{File: f}, nil
}

// Keep prevents Close from removing the underlying file.
func (s *SecureTempFile) Keep() { s.keep = true }

// Close closes the file and removes it unless Keep was called.
func (s *SecureTempFile) Close() error {
	err := s.File.Close()
	if !s.keep {
		os.Remove(s.File.Name())
	}
	return err
}
