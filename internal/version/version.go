// Package version records build metadata. Release builds stamp the
// variables with -ldflags "-X .../internal/version.Version=..."; local
// builds report "dev".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag.
	Version = "dev"

	// Commit is the short git hash the binary was built from.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String formats the build info for the -version flag, e.g.
// "0.3.0 (ab12cd3, go1.24) built 2026-08-01T10:00:00Z".
func String() string {
	return fmt.Sprintf("%s (%s, %s) built %s", Version, Commit, runtime.Version(), BuildTime)
}
