package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	b := Current()
	if b.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", b.GoVersion, runtime.Version())
	}
	if b.OS != runtime.GOOS || b.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", b.OS, b.Arch)
	}
	if b.Version == "" {
		t.Error("Version is empty")
	}
}

func TestBuild_FillFromBuildInfo(t *testing.T) {
	b := Build{Version: "dev", Commit: "unknown", Date: "unknown"}
	b.fill(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if b.Version != "v0.4.0" || b.Commit != "0123456789abcdef0123" || b.Date != "2026-09-30T12:00:00Z" || !b.Modified {
		t.Fatalf("fill = %+v", b)
	}
	if got := b.String(); !strings.Contains(got, "commit: 0123456789ab+dirty") {
		t.Errorf("String() = %q", got)
	}
}

func TestBuild_LdflagsWin(t *testing.T) {
	b := Build{Version: "v1.0.0", Commit: "abc", Date: "today"}
	b.fill(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}},
	})
	if b.Version != "v1.0.0" || b.Commit != "abc" || b.Date != "today" {
		t.Errorf("ldflags values overwritten: %+v", b)
	}
}

func TestBuild_String(t *testing.T) {
	s := Build{Version: "dev", Commit: "unknown", Date: "unknown", GoVersion: "go1.25.7", OS: "windows", Arch: "amd64"}.String()
	if !strings.HasPrefix(s, "dnsswitch dev") || !strings.Contains(s, "windows/amd64") {
		t.Errorf("String() = %q", s)
	}
}
