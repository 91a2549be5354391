// Package version holds build metadata for mfe.
package version

// Set at link time, e.g. -ldflags "-X github.com/tessro/mfe/internal/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
