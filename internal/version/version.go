// Package version reports the build identity of mezzobridge.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/mezzobridge/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/mezzobridge/internal/version.Commit=abc123"
var (
	Version = ""
	Commit  = ""
)

// Info is the resolved build identity.
type Info struct {
	Version   string
	Commit    string
	GoVersion string
	Dirty     bool
}

// Get resolves the build identity, filling gaps from the embedded VCS stamp.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		info = fromSettings(info, bi.Settings)
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func fromSettings(info Info, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortHash(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			// vcs.time is RFC3339; the date part is enough for a dev tag
			if info.Version == "" && len(s.Value) >= 10 {
				info.Version = "dev-" + strings.ReplaceAll(s.Value[:10], "-", "")
			}
		}
	}
	if info.Dirty && info.Commit != "" && !strings.HasSuffix(info.Commit, "-dirty") {
		info.Commit += "-dirty"
	}
	return info
}

func shortHash(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Full returns the version string including commit.
func Full() string {
	info := Get()
	return fmt.Sprintf("%s (commit: %s)", info.Version, info.Commit)
}

// UserAgent is sent on every request to the audio device.
func UserAgent() string {
	return "mezzobridge/" + Get().Version
}
