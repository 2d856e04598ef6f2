package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface handed to the CLI, the check runner and the
// diagnostics server. The numerical packages never log.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New wraps handler in a Logger.
func New(handler slog.Handler) Logger {
	return slogLogger{l: slog.New(handler)}
}

// Default writes text records at info level to stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// JSON writes one JSON object per record.
func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Text writes logfmt records.
func Text(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Pretty writes coloured single-line records for a terminal.
func Pretty(w io.Writer, level slog.Level) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard drops every record.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

// Format selects a handler.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatPretty Format = "pretty"
	FormatText   Format = "text"
	FormatJSON   Format = "json"
)

// ParseFormat accepts auto, pretty, text and json. The empty string is auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatPretty, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("logger: unknown format %q", s)
	}
}

// For builds a Logger of the given format. Auto resolves to pretty when tty
// is true and to text otherwise.
func For(f Format, w io.Writer, level slog.Level, tty bool) Logger {
	if f == FormatAuto {
		f = FormatText
		if tty {
			f = FormatPretty
		}
	}
	switch f {
	case FormatPretty:
		return Pretty(w, level)
	case FormatJSON:
		return JSON(w, level)
	default:
		return Text(w, level)
	}
}

type loggerKey struct{}

// FromContext returns the logger stored in ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s slogLogger) With(args ...any) Logger {
	return slogLogger{l: s.l.With(args...)}
}

func (s slogLogger) WithGroup(name string) Logger {
	return slogLogger{l: s.l.WithGroup(name)}
}

// ParseLevel maps debug, info, warn(ing) and error to a level. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
