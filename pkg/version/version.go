// Package version reports what bmsearch binary is running.
//
// Release builds stamp the values with ldflags:
//
//	-X github.com/Aman-CERP/bmsearch/pkg/version.Version=v1.2.0
//	-X github.com/Aman-CERP/bmsearch/pkg/version.Commit=abc1234
//	-X github.com/Aman-CERP/bmsearch/pkg/version.Date=2026-01-02T03:04:05Z
//
// Without them, GetInfo falls back to the module version and VCS stamps the
// Go toolchain embeds, so `go install` builds still identify themselves.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Ldflags targets. Unset values stay at their defaults.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

var (
	infoOnce sync.Once
	info     BuildInfo
)

// GetInfo returns the build information, computed once.
func GetInfo() BuildInfo {
	infoOnce.Do(func() {
		info = resolve(Version, Commit, Date, readBuildInfo)
	})
	return info
}

// resolve fills values missing from ldflags from the embedded build info.
func resolve(version, commit, date string, read func() (*debug.BuildInfo, bool)) BuildInfo {
	out := BuildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := read()
	if !ok {
		return out
	}
	if out.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		out.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "unknown" {
				out.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if out.Date == "unknown" {
				out.Date = s.Value
			}
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return out
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns a one-line description of the build.
func String() string {
	i := GetInfo()
	commit := i.Commit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("bmsearch %s (commit: %s, built: %s, go: %s, %s/%s)",
		i.Version, commit, i.Date, i.GoVersion, i.OS, i.Arch)
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}
