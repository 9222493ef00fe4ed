// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X github.com/xamyl/wikii/internal/version.Version=v0.3.0" ./cmd/wikii
package version

// Version is the release version reported by --version and /healthz.
var Version = "dev"

// Build metadata set alongside Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
