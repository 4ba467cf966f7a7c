package version

import (
	"runtime/debug"
	"strings"
)

// Set with -ldflags -X.
var (
	Version = "dev"
	Commit  = ""
)

// Info is the resolved build identity.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
	Go      string `json:"go,omitempty"`
}

// Get resolves build information. A Commit set at link time wins over the
// VCS stamp recorded by the Go toolchain.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Go = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String renders version[-commit][-dirty].
func (i Info) String() string {
	parts := []string{i.Version}
	if i.Commit != "" {
		parts = append(parts, i.Commit)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Metadata returns registration metadata entries describing the build.
func (i Info) Metadata() map[string]string {
	md := map[string]string{"version": i.Version}
	if i.Commit != "" {
		md["commit"] = i.Commit
	}
	return md
}
