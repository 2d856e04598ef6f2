package version

import (
	"runtime/debug"
	"testing"
)

func TestResolveLinkerValuesWin(t *testing.T) {
	t.Parallel()
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	got := resolve("v1.0.0", "feedface", "", bi)
	if got.Version != "v1.0.0" || got.Commit != "feedface" {
		t.Fatalf("linker values lost: %+v", got)
	}
	if got.BuildTime != "2026-01-02T03:04:05Z" || got.GoVersion != "go1.26.0" {
		t.Fatalf("build info not merged: %+v", got)
	}
}

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := resolve("", "", "", bi)
	if got.Version != "dev" {
		t.Errorf("Version = %q, want dev", got.Version)
	}
	if s := got.String(); s != "dev (0123456789ab-dirty)" {
		t.Errorf("String() = %q", s)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()
	got := resolve("", "", "", nil)
	if got.Version != "dev" || got.Commit != "" || got.GoVersion == "" {
		t.Fatalf("got %+v", got)
	}
	if got.String() != "dev" {
		t.Fatalf("String() = %q", got.String())
	}
}
