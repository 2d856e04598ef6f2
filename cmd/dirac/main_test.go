package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/check"
	"github.com/samcharles93/dirac/internal/linop"
)

// runApp runs the CLI with an isolated user config directory and returns
// what it wrote to stdout.
func runApp(t *testing.T, userConfig string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if userConfig != "" {
		writeFile(t, filepath.Join(dir, "dirac", "config.yaml"), userConfig)
	}
	logLevel, logFormat, debug = "", "", false

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(context.Background(), append([]string{"dirac"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const smallRun = `lattice: [4, 2, 2, 2]
operator: clover
gauge:
  seed: 7
`

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), exitFailure},
		{"cli exit", cli.Exit("bad flag", 9), 9},
		{"configuration", errors.Mark(errors.New("n5 < 2"), linop.ErrConfiguration), exitConfiguration},
		{"breakdown", errors.Wrap(errors.Mark(errors.New("pivot"), linop.ErrNumericalBreakdown), "create"), exitBreakdown},
		{"usage", errors.Wrap(linop.ErrNotCreated, "apply"), exitUsage},
	}
	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("%s: exit code %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestFailKeepsHint(t *testing.T) {
	err := fail("load run", errors.WithHint(errors.Mark(errors.New("odd extent"), linop.ErrConfiguration), "extents must be even"))
	if exitCode(err) != exitConfiguration {
		t.Fatalf("exit code %d", exitCode(err))
	}
	if !strings.Contains(err.Error(), "hint: extents must be even") {
		t.Fatalf("message %q lacks hint", err.Error())
	}
}

func TestFlopsCommand(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "run.yaml"), "lattice: [4, 4, 4, 4]\noperator: clover\n")
	out, err := runApp(t, "", "flops", "--config", path)
	if err != nil {
		t.Fatalf("flops: %v", err)
	}
	if want := "NFlops:   473088"; !strings.Contains(out, want) {
		t.Fatalf("output %q lacks %q", out, want)
	}
}

func TestCheckCommandJSON(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "run.yaml"), smallRun)
	out, err := runApp(t, "", "check", "-c", path, "--format", "json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var rep check.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !rep.Passed() || len(rep.Results) != len(check.Names("clover")) {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestCheckUsesUserRunFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "run.toml"), "lattice = [4, 2, 4, 2]\noperator = \"dwf\"\n\n[dwf]\nn5 = 4\n")
	out, err := runApp(t, "run_file: "+path+"\n", "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "passed in") {
		t.Fatalf("text report missing summary: %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := writeFile(t, filepath.Join(dir, "unknown.yaml"), "operatr: dwf\n")
	singular := writeFile(t, filepath.Join(dir, "singular.json"), `{"operator": "dwf", "dwf": {"m5": 4, "mf": -1, "n5": 2}}`)
	small := writeFile(t, filepath.Join(dir, "small.yaml"), smallRun)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no run file", []string{"flops"}, exitConfiguration},
		{"unknown key", []string{"flops", "--config", unknown}, exitConfiguration},
		{"singular", []string{"check", "--config", singular}, exitBreakdown},
		{"bad format", []string{"check", "--config", small, "--format", "xml"}, exitUsage},
		{"bad runs", []string{"bench", "--config", small, "--runs", "0"}, exitUsage},
		{"bad log format", []string{"--log-format", "fancy", "version"}, exitUsage},
	}
	for _, tc := range tests {
		_, err := runApp(t, "", tc.args...)
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}
		if got := exitCode(err); got != tc.want {
			t.Errorf("%s: exit code %d, want %d (%v)", tc.name, got, tc.want, err)
		}
	}
}

func TestUserConfigDefersToFlags(t *testing.T) {
	_, err := runApp(t, "log_level: debug\nlog_format: json\n", "--log-level", "warn", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if logLevel != "warn" {
		t.Errorf("log level %q, want the flag value", logLevel)
	}
	if logFormat != "json" {
		t.Errorf("log format %q, want the user config value", logFormat)
	}
}

func TestBenchCommand(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "run.yaml"), smallRun)
	out, err := runApp(t, "bench_runs: 3\n", "bench", "--config", path, "--warmup", "1")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	for _, want := range []string{"Runs:     3", "GFLOP/s", "plus", "minus", "clover_apply"} {
		if !strings.Contains(out, want) {
			t.Errorf("bench output lacks %q:\n%s", want, out)
		}
	}
}
