// Package version holds the build identity of SwitchConnector. The variables
// are set at link time:
//
//	go build -ldflags "-X github.com/HerbHall/switchconnector/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags -X.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the one-line description printed by -version.
func Info() string {
	return fmt.Sprintf("SwitchConnector %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, runtime.Version())
}

// Short returns the bare version, e.g. "1.2.0" or "dev".
func Short() string {
	return Version
}

// UserAgent identifies the service to the switches it manages.
func UserAgent() string {
	return "switchconnector/" + Version
}

// Map returns the build identity for the health endpoint.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}
