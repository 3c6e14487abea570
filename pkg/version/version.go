// Package version holds build-time stamped version metadata, set via
// -ldflags at release build time.
package version

var (
	Version   = "dev"
	GitCommit = "none"
	BuildTime = "unknown"
)
