package logger

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// PrettyHandler renders records as
//
//	15:04:05.000 INFO  message key=value group.key=value
//
// Handlers derived through WithAttrs and WithGroup share the writer lock.
type PrettyHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	prefix string
	attrs  []byte
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{level: slog.LevelInfo, w: w, mu: new(sync.Mutex)}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, ansiGray...)
	buf = r.Time.AppendFormat(buf, "15:04:05.000")
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')

	buf = append(buf, levelColor(r.Level)...)
	buf = append(buf, ansiBold...)
	lvl := r.Level.String()
	buf = append(buf, lvl...)
	buf = append(buf, strings.Repeat(" ", max(0, 5-len(lvl)))...)
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	attrs := h.attrs
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, a, h.prefix)
		return true
	})
	if len(attrs) > 0 {
		buf = append(buf, ansiCyan...)
		buf = append(buf, attrs...)
		buf = append(buf, ansiReset...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = appendAttr(c.attrs, a, h.prefix)
	}
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiBlue
	default:
		return ansiGray
	}
}

// appendAttr writes " prefix.key=value", flattening groups into dotted keys.
func appendAttr(buf []byte, a slog.Attr, prefix string) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			buf = appendAttr(buf, g, p)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindTime:
		buf = a.Value.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindDuration:
		buf = append(buf, a.Value.Duration().String()...)
	case slog.KindFloat64:
		buf = strconv.AppendFloat(buf, a.Value.Float64(), 'g', -1, 64)
	default:
		buf = append(buf, a.Value.String()...)
	}
	return buf
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\n\"=")
}
