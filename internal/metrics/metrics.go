// Package metrics collects cumulative wall-clock time per named section.
// Operators receive a Sink at construction and report into it; nothing in the
// numerical packages keeps timing state of its own.
package metrics

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// Section names reported by the operators.
const (
	CloverApply = "clover_apply"
	CloverDeriv = "clover_deriv"
)

// Sink receives one observation per timed call.
type Sink interface {
	Observe(section string, d time.Duration)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) Observe(string, time.Duration) {}

// Time starts a measurement and returns the function that ends it.
//
//	defer metrics.Time(sink, metrics.CloverApply)()
func Time(s Sink, section string) func() {
	start := time.Now()
	return func() { s.Observe(section, time.Since(start)) }
}

// Timers accumulates durations and call counts per section. It is safe for
// concurrent use.
type Timers struct {
	mu    sync.Mutex
	total map[string]time.Duration
	calls map[string]int
}

func NewTimers() *Timers {
	return &Timers{total: map[string]time.Duration{}, calls: map[string]int{}}
}

func (t *Timers) Observe(section string, d time.Duration) {
	t.mu.Lock()
	t.total[section] += d
	t.calls[section]++
	t.mu.Unlock()
}

// Seconds returns the cumulative time spent in section.
func (t *Timers) Seconds(section string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total[section].Seconds()
}

// Calls returns how many observations section has received.
func (t *Timers) Calls(section string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[section]
}

// Reset clears every section.
func (t *Timers) Reset() {
	t.mu.Lock()
	clear(t.total)
	clear(t.calls)
	t.mu.Unlock()
}

// Entry is one row of a Snapshot.
type Entry struct {
	Section string  `json:"section"`
	Seconds float64 `json:"seconds"`
	Calls   int     `json:"calls"`
}

// Snapshot returns all sections sorted by name.
func (t *Timers) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.total))
	for _, name := range slices.Sorted(maps.Keys(t.total)) {
		out = append(out, Entry{Section: name, Seconds: t.total[name].Seconds(), Calls: t.calls[name]})
	}
	return out
}
