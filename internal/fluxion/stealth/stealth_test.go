package stealth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

func TestGetProfileKnownNames(t *testing.T) {
	for _, name := range ProfileNames() {
		if _, ok := GetProfile(name); !ok {
			t.Errorf("GetProfile(%q) not found", name)
		}
	}
}

func TestResolveProfileUnknown(t *testing.T) {
	if _, err := ResolveProfile("netscape-navigator"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestCookieJarAsHeaderInsertionOrder(t *testing.T) {
	jar := NewCookieJar()
	jar.Add("b", "2")
	jar.Add("a", "1")
	jar.Add("b", "3") // overwrite, should not move position

	if got, want := jar.AsHeader(), "b=3; a=1"; got != want {
		t.Fatalf("AsHeader() = %q, want %q", got, want)
	}
}

func TestCookieJarAddRaw(t *testing.T) {
	jar := NewCookieJar()
	jar.AddRaw("session=abc123; theme=dark")
	if got := jar.AsMap()["session"]; got != "abc123" {
		t.Errorf("session = %q, want abc123", got)
	}
	if got := jar.AsMap()["theme"]; got != "dark" {
		t.Errorf("theme = %q, want dark", got)
	}
}

func TestLoadFileNetscape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" +
		".example.com\tTRUE\t/\tFALSE\t0\tsession\tabc123\n" +
		".example.com\tTRUE\t/\tFALSE\t0\ttheme\tdark\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	jar, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := jar.AsMap()["session"]; got != "abc123" {
		t.Errorf("session = %q, want abc123", got)
	}
	if got := jar.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.json")
	content := `[{"name":"session","value":"abc123"},{"name":"theme","value":"dark"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	jar, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := jar.AsMap()["session"]; got != "abc123" {
		t.Errorf("session = %q, want abc123", got)
	}
}

func TestBuildHeadersPrecedence(t *testing.T) {
	profile, _ := GetProfile("chrome")
	jar := NewCookieJar()
	jar.Add("session", "abc123")

	ctx := Context{
		Profile: &profile,
		Cookies: jar,
		CustomHeaders: []model.Header{
			{Name: "Accept", Value: "application/json"}, // overrides profile's Accept
			{Name: "X-Custom", Value: "1"},
		},
		Referer: "https://example.com",
	}

	headers := ctx.BuildHeaders()

	if headers["Accept"] != "application/json" {
		t.Errorf("custom header did not override profile header: Accept = %q", headers["Accept"])
	}
	if headers["User-Agent"] != profile.UserAgent {
		t.Errorf("User-Agent = %q, want profile UA", headers["User-Agent"])
	}
	if headers["Referer"] != "https://example.com" {
		t.Errorf("Referer = %q", headers["Referer"])
	}
	if headers["Cookie"] != "session=abc123" {
		t.Errorf("Cookie = %q, want single Cookie header", headers["Cookie"])
	}
	if headers["X-Custom"] != "1" {
		t.Errorf("X-Custom missing")
	}
}

func TestBuildHeadersNoProfile(t *testing.T) {
	ctx := Context{}
	headers := ctx.BuildHeaders()
	if len(headers) != 0 {
		t.Fatalf("expected no headers, got %v", headers)
	}
}
