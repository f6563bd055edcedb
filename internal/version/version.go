// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/MeKo-Tech/atlasmatch/internal/version.Version=1.0.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Info returns the build metadata of this binary.
func Info() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String renders the line printed by `atlasmatch --version`.
func (b BuildInfo) String() string {
	return fmt.Sprintf("atlasmatch version %s (commit: %s, built: %s, %s)", b.Version, b.GitCommit, b.BuildDate, b.GoVersion)
}

// String is Info().String().
func String() string { return Info().String() }
