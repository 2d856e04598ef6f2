package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/samcharles93/dirac/internal/version.Version=...".
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Resolve merges the linker-set variables with the embedded build info. The
// linker values win when set.
func Resolve() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, BuildTime, bi)
}

func resolve(ver, commit, built string, bi *debug.BuildInfo) Info {
	info := Info{Version: ver, Commit: commit, BuildTime: built, GoVersion: runtime.Version()}
	if bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func String() string { return Resolve().String() }

func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	s := i.Version + " (" + shortCommit(i.Commit)
	if i.Modified {
		s += "-dirty"
	}
	return s + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
