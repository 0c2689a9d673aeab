/*
Package version identifies the running support-insights binary and looks up
the latest published release.

Release builds set Version, Commit and Date at link time. Anything left at its
default is taken from the module and VCS data the Go toolchain embeds, so a
binary built with "go install" still reports its module version.
*/
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

const (
	devVersion    = "dev"
	unknownCommit = "none"
	unknownDate   = "unknown"
)

// Link-time build values.
var (
	Version = devVersion
	Commit  = unknownCommit
	Date    = unknownDate
)

// BuildInfo describes one build of the binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the running binary's build info.
func Current() BuildInfo {
	info := BuildInfo{Version: Version, Commit: Commit, Date: Date}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withEmbedded(bi)
	}
	return info
}

// withEmbedded fills fields still at their defaults from toolchain data.
func (b BuildInfo) withEmbedded(bi *debug.BuildInfo) BuildInfo {
	if b.Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == unknownCommit && s.Value != "" {
				b.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if b.Date != unknownDate {
				continue
			}
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				b.Date = t.UTC().Format(time.DateOnly)
			}
		}
	}
	return b
}

// IsDev reports whether the binary is an unreleased build.
func (b BuildInfo) IsDev() bool {
	return b.Version == devVersion
}

func (b BuildInfo) String() string {
	switch {
	case b.IsDev() && b.Commit == unknownCommit:
		return "dev (development build)"
	case b.IsDev():
		return fmt.Sprintf("dev (commit %s)", b.Commit)
	default:
		return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
