package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/hrygo/mindtree/internal/version.Version=v0.3.0"
var Version = "0.0.0-dev"

// GitCommit is the git commit hash at build time, set via ldflags.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format, set via ldflags.
var BuildTime = "unknown"

// GetCurrentVersion returns the version string for the given run mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return Version + "-" + mode
	}
	return Version
}

// IsVersionGreaterOrEqualThan compares two semantic versions.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(normalize(version), normalize(target)) >= 0
}

func normalize(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
