// Package buildinfo exposes version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/afkbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/afkbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/afkbot/core/buildinfo.Date=2026-10-19T12:00:00Z'
//
// Unstamped builds fall back to the VCS data recorded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

func init() {
	if Commit != "local" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	applyVCS(info.Settings)
}

func applyVCS(settings []debug.BuildSetting) {
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 7 {
				Commit = s.Value[:7]
			} else if s.Value != "" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "" {
				Date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && Commit != "local" && !strings.HasSuffix(Commit, "-dirty") {
		Commit += "-dirty"
	}
}

// String renders "version (commit) date" for --version output.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s) %s", Version, Commit, Date)
}
