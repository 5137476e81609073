package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestComputeSHA256RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	want := sha256.Sum256(content)
	wantHex := hex.EncodeToString(want[:])

	got, err := ComputeSHA256(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != wantHex {
		t.Fatalf("ComputeSHA256() = %s, want %s", got, wantHex)
	}

	if err := Verify(path, wantHex); err != nil {
		t.Fatalf("Verify() with matching hash: %v", err)
	}
}

func TestVerifyCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("hello")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	upper := hex.EncodeToString(sum[:])
	for i := range upper {
		if upper[i] >= 'a' && upper[i] <= 'f' {
			b := []byte(upper)
			b[i] -= 32
			upper = string(b)
		}
	}
	if err := Verify(path, upper); err != nil {
		t.Fatalf("Verify() should be case-insensitive: %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("actual content"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Verify(path, "0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected mismatch error, got nil")
	}
}

func TestIncrementalHasher(t *testing.T) {
	ih := NewIncrementalHasher()
	ih.Write([]byte("hello "))
	ih.Write([]byte("world"))

	want := sha256.Sum256([]byte("hello world"))
	if got := ih.HexDigest(); got != hex.EncodeToString(want[:]) {
		t.Fatalf("HexDigest() = %s, want %s", got, hex.EncodeToString(want[:]))
	}
	if ih.BytesHashed() != int64(len("hello world")) {
		t.Fatalf("BytesHashed() = %d, want %d", ih.BytesHashed(), len("hello world"))
	}
}

func TestSecureTempFileRemovedByDefault(t *testing.T) {
	dir := t.TempDir()
	stf, err := NewSecureTempFile(dir, "flux-*.tmp")
	if err != nil {
		t.Fatal(err)
	}
	name := stf.File.Name()

	info, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}

	if err := stf.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err = %v", err)
	}
}

func TestSecureTempFileKept(t *testing.T) {
	dir := t.TempDir()
	stf, err := NewSecureTempFile(dir, "flux-*.tmp")
	if err != nil {
		t.Fatal(err)
	}
	name := stf.File.Name()
	stf.Keep()
	stf.Close()

	if _, err := os.Stat(name); err != nil {
		t.Fatalf("expected kept temp file to survive Close, stat err = %v", err)
	}
}
