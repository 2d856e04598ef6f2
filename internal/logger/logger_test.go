package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info at warn level wrote %q", buf.String())
	}
	log.With("op", "clover").Warn("kept", "n5", 8)
	out := buf.String()
	for _, want := range []string{`"msg":"kept"`, `"op":"clover"`, `"n5":8`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := Discard()
	log.Error("nothing")
	log.With("a", 1).WithGroup("g").Info("nothing")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatAuto, true},
		{"auto", FormatAuto, true},
		{" JSON ", FormatJSON, true},
		{"pretty", FormatPretty, true},
		{"text", FormatText, true},
		{"xml", "", false},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestForAutoFollowsTerminal(t *testing.T) {
	t.Parallel()
	var tty, pipe bytes.Buffer
	For(FormatAuto, &tty, slog.LevelInfo, true).Info("hello")
	For(FormatAuto, &pipe, slog.LevelInfo, false).Info("hello")
	if !strings.Contains(tty.String(), ansiReset) {
		t.Errorf("terminal output is not coloured: %q", tty.String())
	}
	if strings.Contains(pipe.String(), ansiReset) || !strings.Contains(pipe.String(), "msg=hello") {
		t.Errorf("pipe output is not logfmt: %q", pipe.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("got %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyAttrsAndGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("run", "abc")}).WithGroup("check"))
	log.Info("done", "name", "schur identity", "residual", 1.5e-14,
		slog.Group("tol", "abs", 1e-10), "took", 3*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"done",
		"run=abc",
		`check.name="schur identity"`,
		"check.residual=1.5e-14",
		"check.tol.abs=1e-10",
		"check.took=3ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %q", want, out)
		}
	}
	if strings.Contains(out, "check.run") {
		t.Errorf("handler attrs picked up a later group: %q", out)
	}
}

func TestPrettyEnabledAndEmptyGroup(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level")
	}
	if h.WithGroup("") != slog.Handler(h) {
		t.Error("empty group returned a new handler")
	}
}

func TestPrettyConcurrentWritesStayWhole(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base := NewPrettyHandler(&buf, nil)
	var wg sync.WaitGroup
	for i := range 8 {
		h := base.WithAttrs([]slog.Attr{slog.Int("worker", i)})
		wg.Go(func() {
			l := slog.New(h)
			for range 50 {
				l.Info("tick")
			}
		})
	}
	wg.Wait()
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines, want 400", len(lines))
	}
	for _, l := range lines {
		if !strings.Contains(l, "tick") || !strings.Contains(l, "worker=") {
			t.Fatalf("torn line %q", l)
		}
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	for s, want := range map[string]bool{
		"simple": false, "has space": true, "a=b": true, `q"`: true, "": false,
	} {
		if got := needsQuoting(s); got != want {
			t.Errorf("needsQuoting(%q) = %v", s, got)
		}
	}
}
