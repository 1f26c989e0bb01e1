// Package version holds build metadata stamped into the beamlab binary
// via -ldflags at release time.
package version

var (
	// Version is the beamlab release version
	Version = "dev"
	// GitSHA is the git commit the binary was built from
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
