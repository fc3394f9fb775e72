// Package version reports how the classfind binary was built.
//
// Release builds stamp the variables with ldflags:
//
//	-X github.com/Aman-CERP/classfind/pkg/version.Version=v1.2.0
//	-X github.com/Aman-CERP/classfind/pkg/version.Commit=abc1234
//	-X github.com/Aman-CERP/classfind/pkg/version.Date=2026-01-02T15:04:05Z
//
// Unstamped builds fall back to the VCS data the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Program is the binary name used in version output.
const Program = "classfind"

const unknown = "unknown"

// Stamped at release; see the package doc.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// BuildInfo is the version document printed by `classfind version --json`.
type BuildInfo struct {
	Program   string `json:"program"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Info returns the build information, filling unstamped fields from the
// embedded VCS settings when the binary was built inside a checkout.
func Info() BuildInfo {
	info := BuildInfo{
		Program:   Program,
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns the one-line form, e.g. "classfind v1.2.0 (abc1234, 2026-01-02T15:04:05Z, go1.25.5)".
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s %s/%s)",
		b.Program, b.Version, commit, b.Date, b.GoVersion, b.OS, b.Arch)
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
