// Package version holds build-time identifying information, overridden at
// link time via -ldflags "-X .../version.Version=...".
package version

var (
	// Version is the release tag, or "dev" for a local build.
	Version = "dev"
	// Commit is the short git commit hash baked in by the release build.
	Commit = "unknown"
	// BuildDate is the RFC3339 build timestamp baked in by the release build.
	BuildDate = "unknown"
)

// String renders the one-line version banner used by `flux version` and
// the User-Agent fallback.
func String() string {
	return "fluxion " + Version + " (" + Commit + ", built " + BuildDate + ")"
}
