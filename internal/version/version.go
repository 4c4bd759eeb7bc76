// Package version reports which dnsswitch build is running. Release builds
// set the variables below via ldflags; `go install` builds fall back to the
// VCS stamp the toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/HerbHall/dnsswitch/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	Date      string `json:"build_date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Current returns the build description, filling unset ldflags values from
// the embedded build info when available.
func Current() Build {
	b := Build{
		Version:   Version,
		Commit:    GitCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		b.fill(info)
	}
	return b
}

func (b *Build) fill(info *debug.BuildInfo) {
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
}

// String is the `dnsswitch version` line.
func (b Build) String() string {
	commit := b.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if b.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("dnsswitch %s (commit: %s, built: %s, %s %s/%s)",
		b.Version, commit, b.Date, b.GoVersion, b.OS, b.Arch)
}

// Short returns the version alone, e.g. "v0.3.1" or "dev".
func Short() string {
	return Current().Version
}
